// Package report renders a ledger snapshot and its aggregates as a PDF.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"ledger/internal/core"
)

const (
	title          = "Expense Tracker Report"
	noData         = "No data"
	maxDescription = 38
	lineHeight     = 7.0
)

// Input is everything a report needs. Summary and breakdowns are expected to
// be derived from Transactions.
type Input struct {
	GeneratedAt  time.Time
	Transactions []core.Transaction
	Summary      core.Summary
	Income       []core.CategoryAmount
	Expense      []core.CategoryAmount
}

// Filename returns the download name for a report generated at t.
func Filename(t time.Time) string {
	return "expense_report_" + t.Format("20060102") + ".pdf"
}

// Render produces the PDF. The output only depends on in, so equal inputs
// give byte-identical documents. Any failure is a *core.RenderError.
func Render(in Input) ([]byte, error) {
	generated := in.GeneratedAt.UTC()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, false)
	pdf.SetCreator("ledger", false)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.AddPage()

	w.title(generated)
	w.summary(in.Summary)
	w.breakdown("Income by Category", in.Income)
	w.breakdown("Expense by Category", in.Expense)
	w.transactions(in.Transactions)

	if err := pdf.Error(); err != nil {
		return nil, &core.RenderError{Err: err}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &core.RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) title(generated time.Time) {
	w.pdf.SetFont("Helvetica", "B", 20)
	w.pdf.SetTextColor(31, 41, 55)
	w.pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.SetTextColor(107, 114, 128)
	w.pdf.CellFormat(0, 6, "Generated on "+generated.Format("January 02, 2006"), "", 1, "C", false, 0, "")
	w.pdf.Ln(6)
}

func (w *writer) heading(s string) {
	w.pdf.SetFont("Helvetica", "B", 14)
	w.pdf.SetTextColor(31, 41, 55)
	w.pdf.CellFormat(0, 9, s, "", 1, "L", false, 0, "")
}

func (w *writer) header(widths []float64, cols ...string) {
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.SetFillColor(229, 231, 235)
	w.pdf.SetTextColor(17, 24, 39)
	for i, c := range cols {
		w.pdf.CellFormat(widths[i], lineHeight, c, "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *writer) row(widths []float64, align string, cells ...string) {
	for i, c := range cells {
		w.pdf.CellFormat(widths[i], lineHeight, w.tr(c), "1", 0, string(align[i]), false, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *writer) empty() {
	w.pdf.SetFont("Helvetica", "I", 10)
	w.pdf.SetTextColor(107, 114, 128)
	w.pdf.CellFormat(0, lineHeight, noData, "", 1, "L", false, 0, "")
}

func (w *writer) summary(s core.Summary) {
	w.heading("Financial Summary")
	widths := []float64{90, 60}
	w.header(widths, "Metric", "Value")
	w.row(widths, "LR", "Total Income", dollars(s.TotalIncome))
	w.row(widths, "LR", "Total Expense", dollars(s.TotalExpense))
	w.row(widths, "LR", "Net Balance", dollars(s.NetBalance))
	w.row(widths, "LR", "Transaction Count", fmt.Sprintf("%d", s.TransactionCount))
	w.pdf.Ln(6)
}

func (w *writer) breakdown(heading string, groups []core.CategoryAmount) {
	w.heading(heading)
	if len(groups) == 0 {
		w.empty()
		w.pdf.Ln(4)
		return
	}

	sorted := make([]core.CategoryAmount, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Cents > sorted[j].Amount.Cents
	})

	widths := []float64{80, 45, 35}
	w.header(widths, "Category", "Amount", "Share")
	for _, g := range sorted {
		w.row(widths, "LRR", g.Category.Name(), dollars(g.Amount), g.Percentage.StringFixed(2)+"%")
	}
	w.pdf.Ln(6)
}

func (w *writer) transactions(txs []core.Transaction) {
	w.heading("Transactions")
	if len(txs) == 0 {
		w.empty()
		return
	}

	widths := []float64{24, 20, 32, 72, 32}
	w.header(widths, "Date", "Type", "Category", "Description", "Amount")
	for _, t := range txs {
		w.row(widths, "LLLLR",
			t.Date.String(),
			t.Type().String(),
			t.Category.Name(),
			truncate(t.Description, maxDescription),
			dollars(t.Amount))
	}
}

func dollars(m core.Money) string {
	if m.Cents < 0 {
		return "-$" + core.Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
