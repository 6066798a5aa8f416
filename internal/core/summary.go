package core

import "sort"

// Totals are the authoritative ledger figures, always recomputed from rows.
type Totals struct {
	Income  float64
	Expense float64
	Balance float64
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// DailyFlow is the income and expense recorded on one date.
type DailyFlow struct {
	Date    Date
	Income  float64
	Expense float64
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year    int
	Month   int // 1-12
	Income  float64
	Expense float64
	// EndBalance is the snapshot balance of the latest row of the month, or
	// Income-Expense when no row carries one.
	EndBalance float64
	ByCategory []CategoryAmount
	Rows       []Transaction
}

// CalcTotals sums income and expense over ts. The balance is income minus
// expense; stored Remaining Balance snapshots are never consulted.
func CalcTotals(ts []Transaction) Totals {
	var t Totals
	for _, tx := range ts {
		t.Income += tx.Income
		t.Expense += tx.Expense
	}
	t.Balance = t.Income - t.Expense
	return t
}

// CategoryBreakdown groups rows with a positive expense by category and
// orders the sums from largest to smallest.
func CategoryBreakdown(ts []Transaction) []CategoryAmount {
	sums := map[string]float64{}
	for _, tx := range ts {
		if tx.Expense > 0 {
			sums[tx.Category] += tx.Expense
		}
	}
	out := make([]CategoryAmount, 0, len(sums))
	for name, amt := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DailyFlows sums income and expense per date in ascending date order.
// Rows whose date could not be parsed are left out.
func DailyFlows(ts []Transaction) []DailyFlow {
	byDate := map[string]*DailyFlow{}
	for _, tx := range ts {
		if !tx.Date.Valid() {
			continue
		}
		key := tx.Date.String()
		f, ok := byDate[key]
		if !ok {
			f = &DailyFlow{Date: tx.Date}
			byDate[key] = f
		}
		f.Income += tx.Income
		f.Expense += tx.Expense
	}
	out := make([]DailyFlow, 0, len(byDate))
	for _, f := range byDate {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// SummarizeMonth filters ts to the given month, orders it by date and
// computes the figures shown on the monthly report.
func SummarizeMonth(ts []Transaction, year, month int) MonthOverview {
	rows := SortByDate(ForMonth(ts, year, month))
	totals := CalcTotals(rows)
	ov := MonthOverview{
		Year:       year,
		Month:      month,
		Income:     totals.Income,
		Expense:    totals.Expense,
		EndBalance: totals.Balance,
		ByCategory: CategoryBreakdown(rows),
		Rows:       rows,
	}
	if n := len(rows); n > 0 && rows[n-1].HasRemainingBalance {
		ov.EndBalance = rows[n-1].RemainingBalance
	}
	return ov
}
