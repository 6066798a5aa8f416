package report_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

func scenario() []core.Transaction {
	return []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Income: 1000, Category: "Salary", Kind: core.KindIncome},
		{Date: core.NewDate(2024, 3, 15), Expense: 300, Category: "Food", Kind: core.KindExpense},
		{Date: core.NewDate(2024, 4, 1), Expense: 50, Category: "Food", Kind: core.KindExpense},
	}
}

func render(t *testing.T, ts []core.Transaction, year, month int) string {
	t.Helper()
	out, err := report.New(report.Options{}).Generate(ts, year, month)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is not a PDF")
	return string(out)
}

func TestGenerate_MonthScenario(t *testing.T) {
	pdf := render(t, scenario(), 2024, 3)

	assert.Contains(t, pdf, "Monthly Report: 03-2024")
	assert.Contains(t, pdf, "Total Income: Rs. 1,000.00")
	assert.Contains(t, pdf, "Total Expense: Rs. 300.00")
	assert.Contains(t, pdf, "End Balance: Rs. 700.00")
	assert.Contains(t, pdf, "(Food)")
	assert.Contains(t, pdf, "(300.00)")
	assert.NotContains(t, pdf, "2024-04-01")
	assert.Contains(t, pdf, "2024-03-15")
}

func TestGenerate_CategoryTableOnlyHasExpenses(t *testing.T) {
	ts := append(scenario(), core.Transaction{
		Date: core.NewDate(2024, 3, 20), Income: 200, Category: "Bonus", Kind: core.KindIncome,
	})

	ov := core.SummarizeMonth(ts, 2024, 3)
	require.Len(t, ov.ByCategory, 1)
	assert.Equal(t, core.CategoryAmount{Name: "Food", Amount: 300}, ov.ByCategory[0])

	pdf := render(t, ts, 2024, 3)
	// Food appears in the category table and the transaction table,
	// income-only categories only in the transaction table.
	assert.Equal(t, 2, strings.Count(pdf, "(Food)"))
	assert.Equal(t, 1, strings.Count(pdf, "(Bonus)"))
	assert.Equal(t, 1, strings.Count(pdf, "(Salary)"))
	assert.Equal(t, 1, strings.Count(pdf, "(Amount \\(Rs.\\))"))
}

func TestGenerate_EndBalanceUsesSnapshot(t *testing.T) {
	ts := scenario()
	for i := range ts {
		ts[i].HasRemainingBalance = true
	}
	ts[0].RemainingBalance = 5000
	ts[1].RemainingBalance = 4321

	pdf := render(t, ts, 2024, 3)
	assert.Contains(t, pdf, "End Balance: Rs. 4,321.00")
}

func TestGenerate_EmptyMonth(t *testing.T) {
	pdf := render(t, scenario(), 2023, 1)

	assert.Contains(t, pdf, "Monthly Report: 01-2023")
	assert.Contains(t, pdf, "End Balance: Rs. 0.00")
	assert.NotContains(t, pdf, "(Category)")
	assert.NotContains(t, pdf, "(Income/Expense)")
}

func TestGenerate_ManyRowsSpansPages(t *testing.T) {
	var ts []core.Transaction
	for i := 0; i < 120; i++ {
		ts = append(ts, core.Transaction{
			Date:        core.NewDate(2024, 3, 1+i%28),
			Description: fmt.Sprintf("item %d", i),
			Expense:     1,
			Category:    "Food",
			Kind:        core.KindExpense,
		})
	}
	pdf := render(t, ts, 2024, 3)
	assert.Greater(t, strings.Count(pdf, "(Income/Expense)"), 1, "header not repeated on later pages")
	assert.Contains(t, pdf, "item 119")
}

func TestGenerate_CustomCurrency(t *testing.T) {
	out, err := report.New(report.Options{Currency: "INR"}).Generate(scenario(), 2024, 3)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total Income: INR 1,000.00")
	assert.Contains(t, string(out), "(Amount \\(INR\\))")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "monthly_2024_03.pdf", report.Filename(2024, 3))
	assert.Equal(t, "monthly_2024_12.pdf", report.Filename(2024, 12))
}
