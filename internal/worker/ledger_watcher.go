// Package worker consumes ledger notifications outside the request path.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// totalsTolerance absorbs float rounding between publisher and reader.
const totalsTolerance = 0.005

// LedgerLoader is the read side of the ledger service.
type LedgerLoader interface {
	Load(ctx context.Context) ([]core.Transaction, error)
}

// Snapshot is the ledger state announced by the last notification.
type Snapshot struct {
	Rows       int
	Totals     core.Totals
	ReceivedAt time.Time
}

// LedgerWatcher follows ledger.saved notifications and checks each one
// against a fresh read of the ledger. A mismatch means another writer
// overwrote the table after the notifying save.
type LedgerWatcher struct {
	ledger LedgerLoader
	logger *applog.Logger
	now    func() time.Time

	mu    sync.Mutex
	last  Snapshot
	drift int
}

func NewLedgerWatcher(ledger LedgerLoader, logger *applog.Logger) *LedgerWatcher {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LedgerWatcher{
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentAMQP),
		now:    time.Now,
	}
}

// StartupCheck logs the ledger state before the first notification arrives.
func (w *LedgerWatcher) StartupCheck(ctx context.Context) error {
	ts, err := w.ledger.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger for startup check: %w", err)
	}
	totals := core.CalcTotals(ts)
	w.logger.InfoContext(ctx, "Ledger state on startup",
		applog.FieldRows, len(ts),
		applog.FieldBalance, totals.Balance,
		applog.FieldOperation, applog.OpStartup)
	return nil
}

// HandleLedgerSaved records msg and compares it with the stored ledger. A
// failed reload is returned so the message is requeued.
func (w *LedgerWatcher) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	announced := core.Totals{Income: msg.Income, Expense: msg.Expense, Balance: msg.Balance}
	w.mu.Lock()
	w.last = Snapshot{Rows: msg.Rows, Totals: announced, ReceivedAt: w.now()}
	w.mu.Unlock()

	ts, err := w.ledger.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	actual := core.CalcTotals(ts)

	if len(ts) != msg.Rows || !sameTotals(actual, announced) {
		w.mu.Lock()
		w.drift++
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Ledger changed after notification",
			"announced_rows", msg.Rows,
			applog.FieldRows, len(ts),
			"announced_balance", msg.Balance,
			applog.FieldBalance, actual.Balance,
			applog.FieldOperation, applog.OpNotify)
		return nil
	}

	w.logger.InfoContext(ctx, "Ledger saved",
		applog.FieldRows, msg.Rows,
		"income", msg.Income,
		"expense", msg.Expense,
		applog.FieldBalance, msg.Balance,
		"published_at", msg.Timestamp)
	return nil
}

// Last returns the most recent notification and whether one was seen.
func (w *LedgerWatcher) Last() (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, !w.last.ReceivedAt.IsZero()
}

// Drift counts notifications that disagreed with the stored ledger.
func (w *LedgerWatcher) Drift() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drift
}

func sameTotals(a, b core.Totals) bool {
	return math.Abs(a.Income-b.Income) < totalsTolerance &&
		math.Abs(a.Expense-b.Expense) < totalsTolerance &&
		math.Abs(a.Balance-b.Balance) < totalsTolerance
}
