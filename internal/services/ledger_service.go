package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/export"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/session"
	ports "fintrack/internal/sheets"
)

// MinAmount is the smallest amount accepted for a new entry.
const MinAmount = 1.0

// ErrEmptyImport rejects imports that would wipe the ledger.
var ErrEmptyImport = errors.New("import file contains no rows")

// Notifier is told about every successful save.
type Notifier interface {
	PublishLedgerSaved(ctx context.Context, rows int, totals core.Totals) error
}

// EntryInput is a new ledger entry as submitted by a user. Empty Date and
// Time default to the current day and clock.
type EntryInput struct {
	Kind        string
	Amount      float64
	Category    string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM
	Description string
}

type Dashboard struct {
	Totals     core.Totals
	Daily      []core.DailyFlow
	ByCategory []core.CategoryAmount
}

// TransactionsView is the filtered ledger, newest first, plus the category
// names available for filtering.
type TransactionsView struct {
	Rows       []core.Transaction
	Categories []string
}

// LedgerService reloads the ledger on every call; nothing is cached.
type LedgerService struct {
	store      ports.LedgerStore
	categories session.CategoryStore
	renderer   *report.Renderer
	notifier   Notifier
	now        func() time.Time
}

// NewLedgerService wires the service. notifier may be nil.
func NewLedgerService(store ports.LedgerStore, categories session.CategoryStore, renderer *report.Renderer, notifier Notifier) *LedgerService {
	if renderer == nil {
		renderer = report.New(report.Options{})
	}
	return &LedgerService{
		store:      store,
		categories: categories,
		renderer:   renderer,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Load reads and normalizes the whole ledger.
func (s *LedgerService) Load(ctx context.Context) ([]core.Transaction, error) {
	if s.store == nil {
		return nil, &LoadError{Err: ports.ErrNotConfigured}
	}
	rows, err := s.store.Load(ctx)
	if err != nil {
		structured(ctx).LogError(ctx, "Failed to load ledger", err, applog.ComponentLedger, applog.OpLoad, nil)
		return nil, &LoadError{Err: err}
	}
	return core.Normalize(core.EnsureNumeric(rows, core.NumericColumns...)), nil
}

func (s *LedgerService) Dashboard(ctx context.Context) (Dashboard, error) {
	ts, err := s.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Totals:     core.CalcTotals(ts),
		Daily:      core.DailyFlows(ts),
		ByCategory: core.CategoryBreakdown(ts),
	}, nil
}

// AddEntry validates in, appends it with a fresh balance snapshot and
// overwrites the stored ledger. The snapshot is the recomputed balance of
// the loaded ledger plus or minus the amount.
func (s *LedgerService) AddEntry(ctx context.Context, sid string, in EntryInput) (core.Transaction, error) {
	row, err := s.buildEntry(ctx, sid, in)
	if err != nil {
		return core.Transaction{}, rejected(ctx, err)
	}

	ts, err := s.Load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	prior := core.CalcTotals(ts).Balance
	if row.Kind == core.KindIncome {
		row.RemainingBalance = prior + row.Income
	} else {
		row.RemainingBalance = prior - row.Expense
	}
	row.HasRemainingBalance = true

	next := core.AppendRow(ts, row)
	if err := s.save(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	amount := row.Income
	if row.Kind == core.KindExpense {
		amount = row.Expense
	}
	structured(ctx).LogEntryAdded(ctx, string(row.Kind), amount, row.Category, row.RemainingBalance, len(next))
	return row, nil
}

func (s *LedgerService) buildEntry(ctx context.Context, sid string, in EntryInput) (core.Transaction, error) {
	kind, err := core.ParseKind(in.Kind)
	if err != nil {
		return core.Transaction{}, &ValidationError{Field: "kind", Err: err}
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < MinAmount {
		return core.Transaction{}, &ValidationError{Field: "amount", Err: fmt.Errorf("%w: must be at least %.2f", core.ErrInvalidAmount, MinAmount)}
	}

	now := s.now()
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	date := today
	if d := strings.TrimSpace(in.Date); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return core.Transaction{}, &ValidationError{Field: "date", Err: core.ErrInvalidDate}
		}
		date = core.NewDate(t.Year(), int(t.Month()), t.Day())
	}
	if date.After(today.Time) {
		return core.Transaction{}, &ValidationError{Field: "date", Err: core.ErrFutureDate}
	}

	clock := strings.TrimSpace(in.Time)
	if clock == "" {
		clock = now.Format("15:04")
	} else if err := core.ValidateTime(clock); err != nil {
		return core.Transaction{}, &ValidationError{Field: "time", Err: err}
	}

	category := strings.TrimSpace(in.Category)
	if s.categories != nil {
		allowed, err := s.categories.Categories(ctx, sid, kind)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("session categories: %w", err)
		}
		if !session.Contains(allowed, category) {
			return core.Transaction{}, &ValidationError{Field: "category", Err: core.ErrUnknownCategory}
		}
	}

	row := core.Transaction{
		Date:        date,
		Time:        clock,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Kind:        kind,
	}
	if kind == core.KindIncome {
		row.Income = in.Amount
	} else {
		row.Expense = in.Amount
	}
	return row, nil
}

// Report renders the monthly PDF for year/month.
func (s *LedgerService) Report(ctx context.Context, year, month int) ([]byte, error) {
	if month < 1 || month > 12 {
		return nil, rejected(ctx, &ValidationError{Field: "month", Err: fmt.Errorf("month %d out of range", month)})
	}
	ts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	period := applog.NewFields().WithPeriod(year, month)
	pdf, err := s.renderer.Generate(ts, year, month)
	if err != nil {
		structured(ctx).LogError(ctx, "Failed to render report", err, applog.ComponentReport, applog.OpRender, period)
		return nil, fmt.Errorf("generate report %04d-%02d: %w", year, month, err)
	}
	applog.FromContext(ctx).WithComponent(applog.ComponentReport).InfoContext(ctx, "Report rendered",
		applog.FieldOperation, applog.OpRender,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"bytes", len(pdf))
	return pdf, nil
}

func (s *LedgerService) ExportCSV(ctx context.Context, w io.Writer) error {
	return s.export(ctx, w, "csv", export.WriteCSV)
}

func (s *LedgerService) ExportXLSX(ctx context.Context, w io.Writer) error {
	return s.export(ctx, w, "xlsx", export.WriteXLSX)
}

func (s *LedgerService) export(ctx context.Context, w io.Writer, format string, write func(io.Writer, []core.Transaction) error) error {
	ts, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := write(w, ts); err != nil {
		structured(ctx).LogError(ctx, "Failed to export ledger", err, applog.ComponentLedger, applog.OpExport,
			applog.LogFields{applog.FieldFormat: format})
		return fmt.Errorf("export %s: %w", format, err)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Ledger exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldFormat, format,
		applog.FieldRows, len(ts))
	return nil
}

// Import replaces the stored ledger with the rows of a CSV export and
// returns how many rows were written.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (int, error) {
	if s.store == nil {
		return 0, &SaveError{Err: ports.ErrNotConfigured}
	}
	rows, err := export.ReadCSV(r)
	if err != nil {
		return 0, rejected(ctx, &ValidationError{Field: "file", Err: err})
	}
	if len(rows) == 0 {
		return 0, rejected(ctx, &ValidationError{Field: "file", Err: ErrEmptyImport})
	}
	ts := core.Normalize(core.EnsureNumeric(rows, core.NumericColumns...))
	if err := s.save(ctx, ts); err != nil {
		return 0, err
	}
	ledgerLogger(ctx).InfoContext(ctx, "Ledger imported",
		applog.FieldOperation, applog.OpImport,
		applog.FieldRows, len(ts))
	return len(ts), nil
}

// Transactions applies opts and orders the result newest first.
func (s *LedgerService) Transactions(ctx context.Context, opts core.FilterOptions) (TransactionsView, error) {
	ts, err := s.Load(ctx)
	if err != nil {
		return TransactionsView{}, err
	}
	return TransactionsView{
		Rows:       core.SortByDateDesc(core.Filter(ts, opts)),
		Categories: core.Categories(ts),
	}, nil
}

// Years lists the years with data, or the current year for an empty ledger.
func (s *LedgerService) Years(ctx context.Context) ([]int, error) {
	ts, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	years := core.Years(ts)
	if len(years) == 0 {
		years = []int{s.now().Year()}
	}
	return years, nil
}

// Categories returns the session's category list for kind.
func (s *LedgerService) Categories(ctx context.Context, sid string, kind core.Kind) ([]string, error) {
	return s.categories.Categories(ctx, sid, kind)
}

func (s *LedgerService) AddCategory(ctx context.Context, sid string, kind core.Kind, label string) ([]string, error) {
	list, err := s.categories.Add(ctx, sid, kind, label)
	if err != nil {
		return nil, categoryError(err)
	}
	return list, nil
}

func (s *LedgerService) RemoveCategory(ctx context.Context, sid string, kind core.Kind, index int) ([]string, error) {
	list, err := s.categories.Remove(ctx, sid, kind, index)
	if err != nil {
		return nil, categoryError(err)
	}
	return list, nil
}

func categoryError(err error) error {
	switch {
	case errors.Is(err, session.ErrEmptyLabel), errors.Is(err, session.ErrIndexOutOfRange), errors.Is(err, core.ErrInvalidKind):
		return &ValidationError{Field: "category", Err: err}
	}
	return err
}

func (s *LedgerService) save(ctx context.Context, ts []core.Transaction) error {
	if err := s.store.Save(ctx, ts); err != nil {
		structured(ctx).LogError(ctx, "Failed to save ledger", err, applog.ComponentLedger, applog.OpSave,
			applog.LogFields{applog.FieldRows: len(ts)})
		return &SaveError{Err: err}
	}
	if s.notifier != nil {
		if err := s.notifier.PublishLedgerSaved(ctx, len(ts), core.CalcTotals(ts)); err != nil {
			ledgerLogger(ctx).WarnContext(ctx, "Failed to publish ledger saved message",
				applog.FieldOperation, applog.OpNotify, applog.FieldError, err)
		}
	}
	return nil
}

// rejected logs a validation failure and returns err unchanged.
func rejected(ctx context.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ledgerLogger(ctx).WarnContext(ctx, "Input rejected",
			applog.FieldOperation, applog.OpValidate,
			"field", ve.Field,
			applog.FieldError, ve.Err)
	}
	return err
}

func ledgerLogger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentLedger)
}

func structured(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}
