package sheets

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=sheets

// ErrNotConfigured is returned by adapters used without a backing service.
var ErrNotConfigured = errors.New("sheets service not initialized")

// Ports for outbound adapters.
type (
	// LedgerReader fetches the whole ledger table as raw rows. Rows are not
	// normalized; callers run them through core.Normalize.
	LedgerReader interface {
		Load(ctx context.Context) ([]core.RawRow, error)
	}

	// LedgerWriter replaces the whole stored ledger with ts. There is no
	// conflict detection: the last writer wins.
	LedgerWriter interface {
		Save(ctx context.Context, ts []core.Transaction) error
	}

	LedgerStore interface {
		LedgerReader
		LedgerWriter
	}
)

// Table lays ts out as a header row followed by one row per transaction,
// in canonical column order.
func Table(ts []core.Transaction) [][]any {
	out := make([][]any, 0, len(ts)+1)
	header := make([]any, len(core.Columns))
	for i, c := range core.Columns {
		header[i] = c
	}
	out = append(out, header)
	for _, tx := range ts {
		out = append(out, tx.Values())
	}
	return out
}
