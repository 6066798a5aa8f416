package core

import (
	"sort"
	"time"
)

// FilterOptions narrows the ledger for the transaction view. Zero values
// disable the corresponding bound.
type FilterOptions struct {
	From     time.Time
	To       time.Time
	Category string
}

// AppendRow returns a new ledger with row added at the end. ts itself is
// left untouched so callers can keep using the pre-append state.
func AppendRow(ts []Transaction, row Transaction) []Transaction {
	out := make([]Transaction, len(ts), len(ts)+1)
	copy(out, ts)
	return append(out, row)
}

// ForMonth keeps the rows dated within year/month, in ledger order.
func ForMonth(ts []Transaction, year, month int) []Transaction {
	var out []Transaction
	for _, tx := range ts {
		if !tx.Date.Valid() {
			continue
		}
		if tx.Date.Year() == year && int(tx.Date.Month()) == month {
			out = append(out, tx)
		}
	}
	return out
}

// Filter applies an inclusive date range and an optional exact category.
// Rows with an unparsed date never match a date bound.
func Filter(ts []Transaction, opts FilterOptions) []Transaction {
	var out []Transaction
	for _, tx := range ts {
		if !opts.From.IsZero() || !opts.To.IsZero() {
			if !tx.Date.Valid() {
				continue
			}
			if !opts.From.IsZero() && tx.Date.Before(truncateDay(opts.From)) {
				continue
			}
			if !opts.To.IsZero() && tx.Date.After(truncateDay(opts.To)) {
				continue
			}
		}
		if opts.Category != "" && tx.Category != opts.Category {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SortByDate returns a copy ordered by ascending date. Equal dates keep
// ledger order and unparsed dates go last.
func SortByDate(ts []Transaction) []Transaction {
	out := append([]Transaction(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.Before(b.Time)
	})
	return out
}

// SortByDateDesc is the newest-first order used for display.
func SortByDateDesc(ts []Transaction) []Transaction {
	out := append([]Transaction(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.After(b.Time)
	})
	return out
}

// Years lists the distinct years present in the ledger, ascending.
func Years(ts []Transaction) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, tx := range ts {
		if !tx.Date.Valid() {
			continue
		}
		y := tx.Date.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Categories lists the distinct non-empty categories in the ledger, sorted.
func Categories(ts []Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tx := range ts {
		if tx.Category == "" {
			continue
		}
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	sort.Strings(out)
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
