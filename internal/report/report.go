// Package report renders the monthly PDF statement.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
)

// DefaultCurrency prefixes amounts. The PDF core fonts have no rupee glyph.
const DefaultCurrency = "Rs."

const (
	margin     = 24.0
	rowHeight  = 16.0
	lineHeight = 14.0
)

var (
	headerFill = [3]int{0x0b, 0x6e, 0x4f}
	gridColor  = [3]int{128, 128, 128}
)

// table is the layout of one bordered table with a filled header row.
type table struct {
	header   []string
	widths   []float64
	fontSize float64
}

var txTable = table{
	header:   core.Columns,
	widths:   []float64{80, 50, 120, 80, 80, 90, 120, 80},
	fontSize: 8,
}

type Options struct {
	Currency string
	// Compress deflates page streams. Tests turn it off to inspect the output.
	Compress bool
}

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	return &Renderer{opts: opts}
}

// Filename is the download name of the report for year/month.
func Filename(year, month int) string {
	return fmt.Sprintf("monthly_%d_%02d.pdf", year, month)
}

// Generate renders the report for year/month over the full ledger ts and
// returns the PDF bytes. Months without rows still produce a document with
// the title and zero totals.
func (r *Renderer) Generate(ts []core.Transaction, year, month int) ([]byte, error) {
	ov := core.SummarizeMonth(ts, year, month)

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.opts.Compress)
	title := fmt.Sprintf("Monthly Report: %02d-%d", month, year)
	pdf.SetTitle(title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 24, title, "", 1, "L", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, "Total Income: "+r.money(ov.Income), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Total Expense: "+r.money(ov.Expense), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "End Balance: "+r.money(ov.EndBalance), "", 1, "L", false, 0, "")
	pdf.Ln(12)

	if len(ov.Rows) == 0 {
		return output(pdf)
	}

	if len(ov.ByCategory) > 0 {
		cat := table{
			header:   []string{"Category", "Amount (" + r.opts.Currency + ")"},
			widths:   []float64{300, 120},
			fontSize: 10,
		}
		cat.drawHeader(pdf)
		for _, c := range ov.ByCategory {
			cat.ensureSpace(pdf)
			cat.drawRow(pdf, []string{tr(c.Name), core.FormatAmount(c.Amount)}, 1, 1)
		}
		pdf.Ln(12)
	}

	txTable.drawHeader(pdf)
	for _, tx := range ov.Rows {
		txTable.ensureSpace(pdf)
		txTable.drawRow(pdf, []string{
			tx.Date.String(),
			tx.Time,
			tr(tx.Description),
			core.FormatAmount(tx.Income),
			core.FormatAmount(tx.Expense),
			core.FormatAmount(tx.RemainingBalance),
			tr(tx.Category),
			string(tx.Kind),
		}, 3, 5)
	}
	return output(pdf)
}

func (r *Renderer) money(v float64) string {
	return r.opts.Currency + " " + core.FormatAmount(v)
}

// ensureSpace starts a new page, repeating the header, when the next row
// would not fit.
func (t table) ensureSpace(pdf *fpdf.Fpdf) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+rowHeight <= pageH-margin {
		return
	}
	pdf.AddPage()
	t.drawHeader(pdf)
}

func (t table) drawHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", t.fontSize)
	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(gridColor[0], gridColor[1], gridColor[2])
	pdf.SetLineWidth(0.25)
	t.cells(pdf, t.header, -1, -1, true)
	pdf.SetFont("Helvetica", "", t.fontSize)
	pdf.SetTextColor(0, 0, 0)
}

// drawRow writes one body row; columns first..last are right aligned.
func (t table) drawRow(pdf *fpdf.Fpdf, cells []string, first, last int) {
	t.cells(pdf, cells, first, last, false)
}

func (t table) cells(pdf *fpdf.Fpdf, cells []string, first, last int, fill bool) {
	for i, c := range cells {
		align := "L"
		if i >= first && i <= last {
			align = "R"
		}
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		pdf.CellFormat(t.widths[i], rowHeight, fit(pdf, c, t.widths[i]), "1", ln, align, fill, 0, "")
	}
}

// fit truncates s so it stays inside a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	const pad = 4
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w-pad {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
