// Package rows provides iterate-once tabular sources for the ingestion
// pipeline. Each source yields column-keyed rows in file order.
package rows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/voclabs/vocd/internal/domain"
)

// CSVSource reads one CSV file. The first record is the header; every
// following record becomes a SourceRow keyed by header column names.
type CSVSource struct {
	f      *os.File
	r      *csv.Reader
	header []string
	done   bool
}

// NewCSVSource opens a CSV file and consumes its header.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := csv.NewReader(f)
	src := &CSVSource{f: f, r: r}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			src.done = true
			return src, nil
		}
		f.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	src.header = header

	return src, nil
}

// Next returns the next row or io.EOF.
func (s *CSVSource) Next() (domain.SourceRow, error) {
	if s.done {
		return domain.SourceRow{}, io.EOF
	}

	record, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.done = true
			return domain.SourceRow{}, io.EOF
		}
		return domain.SourceRow{}, fmt.Errorf("read csv record: %w", err)
	}

	values := make(map[string]string, len(s.header))
	for i, col := range s.header {
		if i < len(record) {
			values[col] = record[i]
		}
	}

	return domain.SourceRow{Columns: s.header, Values: values}, nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.f.Close()
}
