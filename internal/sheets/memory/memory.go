package memory

import (
	"context"
	"sync"

	ports "dailyexpense/internal/sheets"
)

// Store keeps the last mirrored report in memory. It stands in for Google
// Sheets when no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	rows   [][]string
	writes int
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteReport replaces the stored rows with a copy of rows.
func (s *Store) WriteReport(_ context.Context, rows [][]string) error {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = cp
	s.writes++
	return nil
}

// Rows returns a copy of the last written report.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Writes counts WriteReport calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
