// Package postgres keeps the ledger in a PostgreSQL table.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

var columns = []string{
	"position", "date", "time", "description", "income", "expense",
	"remaining_balance", "category", "kind",
}

type Repository struct {
	pool *pgxpool.Pool
}

var _ ports.LedgerStore = (*Repository)(nil)

// New connects to databaseURL and migrates the ledger schema.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Load(ctx context.Context) ([]core.RawRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT date, time, description, income, expense,
remaining_balance, category, kind FROM ledger_transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.RawRow, error) {
		var (
			date, tm, desc, category, kind string
			income, expense                float64
			balance                        *float64
		)
		if err := row.Scan(&date, &tm, &desc, &income, &expense, &balance, &category, &kind); err != nil {
			return nil, err
		}
		raw := core.RawRow{
			core.ColDate:        date,
			core.ColTime:        tm,
			core.ColDescription: desc,
			core.ColIncome:      income,
			core.ColExpense:     expense,
			core.ColCategory:    category,
			core.ColKind:        kind,
		}
		if balance != nil {
			raw[core.ColRemainingBalance] = *balance
		}
		return raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

// Save truncates the table and bulk-loads ts with COPY in one transaction.
func (r *Repository) Save(ctx context.Context, ts []core.Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE ledger_transactions"); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"ledger_transactions"}, columns,
		pgx.CopyFromSlice(len(ts), func(i int) ([]any, error) {
			t := ts[i]
			var balance *float64
			if t.HasRemainingBalance {
				balance = &t.RemainingBalance
			}
			return []any{i + 1, t.Date.String(), t.Time, t.Description, t.Income,
				t.Expense, balance, t.Category, string(t.Kind)}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Ledger saved to Postgres",
		applog.FieldComponent, applog.ComponentStorage, applog.FieldRows, n)
	return nil
}
