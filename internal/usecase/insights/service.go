// Package insights serves the precomputed aggregate-metrics document consumed
// by the dashboard. The document is produced out-of-band; this service only
// validates and passes it through.
package insights

import (
	"encoding/json"
	"fmt"
	"os"
)

// Service holds the insights document in memory, loaded once at startup.
type Service struct {
	raw []byte
}

// Load reads and validates the insights JSON file.
func Load(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read insights file: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("insights file %s is not valid JSON", path)
	}
	return &Service{raw: raw}, nil
}

// Document returns the raw JSON document.
func (s *Service) Document() []byte {
	return s.raw
}
