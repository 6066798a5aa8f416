package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
	ports "fintrack/internal/sheets"
)

type fakeNotifier struct {
	calls int
	rows  int
	err   error
}

func (f *fakeNotifier) PublishLedgerSaved(_ context.Context, rows int, _ core.Totals) error {
	f.calls++
	f.rows = rows
	return f.err
}

var fixedNow = time.Date(2024, 3, 20, 18, 45, 0, 0, time.UTC)

func newTestService(t *testing.T) (*LedgerService, *ports.MockLedgerStore, *fakeNotifier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := ports.NewMockLedgerStore(ctrl)
	n := &fakeNotifier{}
	svc := NewLedgerService(store, session.NewMemoryStore(session.DefaultCategories(), time.Hour), nil, n)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, n
}

func storedRows() []core.RawRow {
	return []core.RawRow{
		{core.ColDate: "2024-03-01", core.ColIncome: "1,000", core.ColExpense: "", core.ColRemainingBalance: "1000", core.ColCategory: "Salary", core.ColKind: "Income"},
		{core.ColDate: "15/03/2024", core.ColIncome: "", core.ColExpense: "₹ 300", core.ColRemainingBalance: "700", core.ColCategory: "Food", core.ColKind: "Expense"},
		{core.ColDate: "2024-04-01", core.ColIncome: "", core.ColExpense: "50", core.ColRemainingBalance: "650", core.ColCategory: "Food", core.ColKind: "Expense"},
	}
}

func TestLedgerService_Dashboard(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Totals{Income: 1000, Expense: 350, Balance: 650}, d.Totals)
	assert.Equal(t, []core.CategoryAmount{{Name: "Food", Amount: 350}}, d.ByCategory)
	require.Len(t, d.Daily, 3)
	assert.Equal(t, "2024-03-15", d.Daily[1].Date.String())
}

func TestLedgerService_LoadError(t *testing.T) {
	svc, store, _ := newTestService(t)
	boom := errors.New("sheet unreachable")
	store.EXPECT().Load(gomock.Any()).Return(nil, boom)

	_, err := svc.Dashboard(context.Background())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, boom)
}

func TestLedgerService_AddEntry(t *testing.T) {
	svc, store, n := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)

	var saved []core.Transaction
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ts []core.Transaction) error {
		saved = ts
		return nil
	})

	row, err := svc.AddEntry(context.Background(), "sid", EntryInput{
		Kind:        "expense",
		Amount:      25.5,
		Category:    "Travel",
		Date:        "2024-03-20",
		Time:        "08:15",
		Description: " bus ",
	})
	require.NoError(t, err)

	// balance is recomputed from all rows, not read from the last snapshot
	assert.Equal(t, 650-25.5, row.RemainingBalance)
	assert.Equal(t, core.KindExpense, row.Kind)
	assert.Equal(t, 25.5, row.Expense)
	assert.Zero(t, row.Income)
	assert.Equal(t, "bus", row.Description)

	require.Len(t, saved, 4)
	assert.Equal(t, row, saved[3])
	assert.Equal(t, "2024-03-01", saved[0].Date.String())
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, 4, n.rows)
}

func TestLedgerService_AddEntryDefaultsDateAndTime(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Len(1)).Return(nil)

	row, err := svc.AddEntry(context.Background(), "sid", EntryInput{Kind: "Income", Amount: 1000, Category: "Salary"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", row.Date.String())
	assert.Equal(t, "18:45", row.Time)
	assert.Equal(t, 1000.0, row.RemainingBalance)
}

func TestLedgerService_AddEntryValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    EntryInput
		field string
		want  error
	}{
		{"bad kind", EntryInput{Kind: "Transfer", Amount: 5, Category: "Food"}, "kind", core.ErrInvalidKind},
		{"amount below minimum", EntryInput{Kind: "Expense", Amount: 0.5, Category: "Food"}, "amount", core.ErrInvalidAmount},
		{"future date", EntryInput{Kind: "Expense", Amount: 5, Category: "Food", Date: "2024-03-21"}, "date", core.ErrFutureDate},
		{"malformed date", EntryInput{Kind: "Expense", Amount: 5, Category: "Food", Date: "21/03/2024"}, "date", core.ErrInvalidDate},
		{"bad time", EntryInput{Kind: "Expense", Amount: 5, Category: "Food", Time: "25:00"}, "time", core.ErrInvalidTime},
		{"category of other kind", EntryInput{Kind: "Expense", Amount: 5, Category: "Salary"}, "category", core.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no store calls are expected: validation happens first
			svc, _, n := newTestService(t)
			_, err := svc.AddEntry(context.Background(), "sid", tt.in)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, n.calls)
		})
	}
}

func TestLedgerService_AddEntryUsesSessionCategories(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := svc.AddCategory(context.Background(), "sid", core.KindExpense, "Pets")
	require.NoError(t, err)

	store.EXPECT().Load(gomock.Any()).Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	_, err = svc.AddEntry(context.Background(), "sid", EntryInput{Kind: "Expense", Amount: 5, Category: "Pets"})
	require.NoError(t, err)

	// a different session still has only the defaults
	_, err = svc.AddEntry(context.Background(), "other", EntryInput{Kind: "Expense", Amount: 5, Category: "Pets"})
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestLedgerService_SaveErrorKeepsNothing(t *testing.T) {
	svc, store, n := newTestService(t)
	boom := errors.New("quota exceeded")
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil).Times(2)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(boom)

	_, err := svc.AddEntry(context.Background(), "sid", EntryInput{Kind: "Expense", Amount: 5, Category: "Food"})
	var se *SaveError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n.calls)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 650.0, d.Totals.Balance)
}

func TestLedgerService_NotifierFailureDoesNotFailEntry(t *testing.T) {
	svc, store, n := newTestService(t)
	n.err = errors.New("broker down")
	store.EXPECT().Load(gomock.Any()).Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.AddEntry(context.Background(), "sid", EntryInput{Kind: "Expense", Amount: 5, Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.calls)
}

func TestLedgerService_Report(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)

	pdf, err := svc.Report(context.Background(), 2024, 3)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.Report(context.Background(), 2024, 13)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLedgerService_Transactions(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)

	view, err := svc.Transactions(context.Background(), core.FilterOptions{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Category: "Food",
	})
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "2024-03-15", view.Rows[0].Date.String())
	assert.Equal(t, []string{"Food", "Salary"}, view.Categories)
}

func TestLedgerService_Years(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)
	store.EXPECT().Load(gomock.Any()).Return(nil, nil)

	years, err := svc.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, years)

	years, err = svc.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{fixedNow.Year()}, years)
}

func TestLedgerService_ExportAndImport(t *testing.T) {
	svc, store, n := newTestService(t)
	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Date,Time,Type"))

	var saved []core.Transaction
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ts []core.Transaction) error {
		saved = ts
		return nil
	})
	count, err := svc.Import(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, core.Totals{Income: 1000, Expense: 350, Balance: 650}, core.CalcTotals(saved))
	assert.Equal(t, 1, n.calls)
}

func TestLedgerService_CategoryErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	var ve *ValidationError

	_, err := svc.AddCategory(context.Background(), "sid", core.KindIncome, " ")
	assert.ErrorAs(t, err, &ve)
	_, err = svc.RemoveCategory(context.Background(), "sid", core.KindIncome, 99)
	assert.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, session.ErrIndexOutOfRange)
}

func TestLedgerService_ImportRejectsEmptyFile(t *testing.T) {
	svc, _, n := newTestService(t)

	_, err := svc.Import(context.Background(), strings.NewReader(""))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrEmptyImport)
	assert.Equal(t, 0, n.calls)
}

func TestLedgerService_LogsReportExportImport(t *testing.T) {
	svc, store, _ := newTestService(t)
	var logs bytes.Buffer
	ctx := applog.NewContext(context.Background(), applog.New(applog.Config{Output: &logs}))

	store.EXPECT().Load(gomock.Any()).Return(storedRows(), nil).Times(2)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Report(ctx, 2024, 3)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))
	_, err = svc.Import(ctx, &buf)
	require.NoError(t, err)
	_, err = svc.Report(ctx, 2024, 0)
	require.Error(t, err)

	out := logs.String()
	assert.Contains(t, out, `msg="Report rendered" component=report operation=render year=2024 month=3`)
	assert.Contains(t, out, `msg="Ledger exported" component=ledger operation=export format=csv rows=3`)
	assert.Contains(t, out, `msg="Ledger imported" component=ledger operation=import rows=3`)
	assert.Contains(t, out, `msg="Input rejected" component=ledger operation=validate field=month`)
}

func TestLedgerService_ImportKeepsMissingBalances(t *testing.T) {
	svc, store, _ := newTestService(t)
	csv := "Date,Time,Type,Income,Expense,Remaining Balance,Category,Income/Expense\n" +
		"2024-03-01,,,1000,0,,,\n" +
		"2024-03-15,,,0,300,,Food,\n"

	var saved []core.Transaction
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ts []core.Transaction) error {
		saved = ts
		return nil
	})
	_, err := svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.False(t, saved[1].HasRemainingBalance)
	assert.Equal(t, 700.0, core.SummarizeMonth(saved, 2024, 3).EndBalance)
}
