package rows

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/voclabs/vocd/internal/domain"
)

// ParquetSource streams one parquet file row group by row group. Leaf values
// are rendered as strings keyed by their top-level column name.
type ParquetSource struct {
	f       *os.File
	pf      *parquet.File
	leaves  []string // leaf index -> top-level column name
	columns []string // unique top-level column order

	groupIdx int
	reader   parquet.Rows
	buf      []parquet.Row
	bufLen   int
	bufIdx   int
}

// NewParquetSource opens a parquet file and resolves its column layout.
func NewParquetSource(path string) (*ParquetSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet: %w", err)
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse parquet: %w", err)
	}

	src := &ParquetSource{
		f:   f,
		pf:  pf,
		buf: make([]parquet.Row, 256),
	}

	seen := make(map[string]bool)
	for _, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			src.leaves = append(src.leaves, "")
			continue
		}
		name := path[0]
		src.leaves = append(src.leaves, name)
		if !seen[name] {
			seen[name] = true
			src.columns = append(src.columns, name)
		}
	}

	return src, nil
}

// Next returns the next row or io.EOF.
func (s *ParquetSource) Next() (domain.SourceRow, error) {
	for s.bufIdx >= s.bufLen {
		if err := s.fill(); err != nil {
			return domain.SourceRow{}, err
		}
	}

	row := s.buf[s.bufIdx]
	s.bufIdx++
	return s.toSourceRow(row), nil
}

// fill refills the row buffer, advancing to the next row group as needed.
func (s *ParquetSource) fill() error {
	for {
		if s.reader == nil {
			groups := s.pf.RowGroups()
			if s.groupIdx >= len(groups) {
				return io.EOF
			}
			s.reader = parquet.NewRowGroupReader(groups[s.groupIdx])
			s.groupIdx++
		}

		n, err := s.reader.ReadRows(s.buf)
		s.bufLen = n
		s.bufIdx = 0
		if n > 0 {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read parquet rows: %w", err)
		}
		// Row group exhausted, move on.
		s.reader.Close()
		s.reader = nil
	}
}

func (s *ParquetSource) toSourceRow(row parquet.Row) domain.SourceRow {
	values := make(map[string]string, len(s.columns))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(s.leaves) || v.IsNull() {
			continue
		}
		name := s.leaves[col]
		if prev, ok := values[name]; ok && prev != "" {
			// Repeated leaf (list column): accumulate.
			values[name] = prev + ", " + v.String()
			continue
		}
		values[name] = v.String()
	}
	return domain.SourceRow{Columns: s.columns, Values: values}
}

// Close releases the reader and the underlying file.
func (s *ParquetSource) Close() error {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	return s.f.Close()
}
