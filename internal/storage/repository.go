// Package storage keeps the ledger in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"

	_ "modernc.org/sqlite"
)

const (
	selectRows = `SELECT date, time, description, income, expense, remaining_balance, category, kind
FROM transactions ORDER BY position`
	insertRow = `INSERT INTO transactions
(position, date, time, description, income, expense, remaining_balance, category, kind)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.LedgerStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements sheets.LedgerReader
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, selectRows)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RawRow
	for rows.Next() {
		var (
			date, tm, desc, category, kind string
			income, expense                float64
			balance                        sql.NullFloat64
		)
		if err := rows.Scan(&date, &tm, &desc, &income, &expense, &balance, &category, &kind); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		row := core.RawRow{
			core.ColDate:        date,
			core.ColTime:        tm,
			core.ColDescription: desc,
			core.ColIncome:      income,
			core.ColExpense:     expense,
			core.ColCategory:    category,
			core.ColKind:        kind,
		}
		if balance.Valid {
			row[core.ColRemainingBalance] = balance.Float64
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Save implements sheets.LedgerWriter. The table is replaced inside a single
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, ts []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range ts {
		balance := sql.NullFloat64{Float64: t.RemainingBalance, Valid: t.HasRemainingBalance}
		if _, err := stmt.ExecContext(ctx, i+1, t.Date.String(), t.Time, t.Description,
			t.Income, t.Expense, balance, t.Category, string(t.Kind)); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage, applog.FieldRows, len(ts))
	return nil
}
