package memory

import (
	"context"
	"fmt"
	"maps"
	"os"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/export"
	ports "fintrack/internal/sheets"
)

// Store keeps the ledger in process memory. It backs local runs and tests.
type Store struct {
	mu   sync.Mutex
	rows []core.RawRow
}

var _ ports.LedgerStore = (*Store)(nil)

func New(rows ...core.RawRow) *Store {
	return &Store{rows: cloneRows(rows)}
}

// NewFromFile seeds the store from a CSV export. A missing file yields an
// empty ledger.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	rows, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return New(rows...), nil
}

// Load returns a copy of the stored rows.
func (s *Store) Load(_ context.Context) ([]core.RawRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows), nil
}

// Save replaces the stored rows with ts.
func (s *Store) Save(_ context.Context, ts []core.Transaction) error {
	rows := make([]core.RawRow, 0, len(ts))
	for _, tx := range ts {
		rows = append(rows, tx.Raw())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	return nil
}

func cloneRows(in []core.RawRow) []core.RawRow {
	out := make([]core.RawRow, 0, len(in))
	for _, r := range in {
		out = append(out, maps.Clone(r))
	}
	return out
}
