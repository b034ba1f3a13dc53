package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/phpdave11/gofpdf"

	"cashcraft/internal/core"
)

// WritePDF renders a one-document summary: headline figures, totals per
// category with their share, and totals per month.
func WritePDF(w io.Writer, r *Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Expense summary", true)
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Expense summary")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	period := "No expenses recorded"
	if r.Summary.Count > 0 {
		period = "Period: " + r.Summary.Earliest.String() + " to " + r.Summary.Latest.String()
	}
	pdf.Cell(0, 6, period)
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{60, 60, 60}
	pdf.CellFormat(sumW[0], 10, "Total", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Transactions", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Average", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, r.Summary.Total.String(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, strconv.FormatInt(r.Summary.Count, 10), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, r.Summary.Average.String(), "1", 1, "C", false, 0, "")
	pdf.Ln(8)

	catW := []float64{90, 45, 45}
	tableHeader(pdf, "By category", catW, "CATEGORY", "TOTAL", "SHARE")
	for _, c := range r.Categories {
		pdf.CellFormat(catW[0], 8, tr(c.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(catW[1], 8, c.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(catW[2], 8, fmt.Sprintf("%.1f%%", core.Share(c.Amount, r.Summary.Total)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	monW := []float64{90, 90}
	tableHeader(pdf, "By month", monW, "MONTH", "TOTAL")
	for _, m := range r.Monthly {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader(pdf, "By month (continued)", monW, "MONTH", "TOTAL")
		}
		pdf.CellFormat(monW[0], 8, m.Month, "1", 0, "L", false, 0, "")
		pdf.CellFormat(monW[1], 8, m.Amount.String(), "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+time.Now().Format(time.RFC3339), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return nil
}

func tableHeader(pdf *gofpdf.Fpdf, title string, widths []float64, cols ...string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, c, "1", ln, align, true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
}
