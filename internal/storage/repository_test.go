package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_EmptyLedger(t *testing.T) {
	repo := newTestRepo(t)
	rows, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteRepository_SaveReplacesLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Income: 1000, RemainingBalance: 1000, HasRemainingBalance: true, Category: "Salary", Kind: core.KindIncome},
		{Date: core.NewDate(2024, 3, 5), Expense: 300, RemainingBalance: 700, HasRemainingBalance: true, Category: "Food", Kind: core.KindExpense},
	}
	require.NoError(t, repo.Save(ctx, first))

	rows, err := repo.Load(ctx)
	require.NoError(t, err)
	got := core.Normalize(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-01", got[0].Date.String())
	assert.Equal(t, "Food", got[1].Category)
	assert.True(t, got[1].HasRemainingBalance)
	assert.Equal(t, 700.0, got[1].RemainingBalance)

	require.NoError(t, repo.Save(ctx, first[:1]))
	rows, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteRepository_KeepsInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts := []core.Transaction{
		{Date: core.NewDate(2024, 5, 1), Description: "later"},
		{Date: core.NewDate(2024, 1, 1), Description: "earlier"},
		{Date: core.Date{Raw: "someday"}, Description: "unparsed"},
	}
	require.NoError(t, repo.Save(ctx, ts))

	rows, err := repo.Load(ctx)
	require.NoError(t, err)
	got := core.Normalize(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "later", got[0].Description)
	assert.Equal(t, "earlier", got[1].Description)
	assert.Equal(t, "someday", got[2].Date.String())
}

func TestSQLiteRepository_MissingBalanceStaysMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Income: 1000},
		{Date: core.NewDate(2024, 3, 15), Expense: 300, Category: "Food"},
	}))

	rows, err := repo.Load(ctx)
	require.NoError(t, err)
	got := core.Normalize(rows)
	require.Len(t, got, 2)
	assert.False(t, got[1].HasRemainingBalance)
	assert.Equal(t, 700.0, core.SummarizeMonth(got, 2024, 3).EndBalance)
}

func TestSQLiteRepository_ReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), []core.Transaction{{Description: "x"}}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	rows, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteRepository_SaveLogsRows(t *testing.T) {
	repo := newTestRepo(t)
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, repo.Save(context.Background(), []core.Transaction{{Description: "x"}}))
	assert.Contains(t, buf.String(), `msg="Ledger saved to SQLite" component=storage rows=1`)
}
