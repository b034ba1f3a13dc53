package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cashcraft/internal/core"
)

const (
	sheetExpenses   = "Expenses"
	sheetCategories = "Categories"
	sheetMonthly    = "Monthly"
)

// WriteXLSX writes a workbook with the raw rows plus category and monthly
// totals. Amounts are numeric cells so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][]any, 0, len(r.Expenses))
	for _, e := range r.Expenses {
		rows = append(rows, []any{e.ID, e.Date.String(), e.Category, e.Amount.Float64(), e.Description})
	}
	if err := writeSheet(f, sheetExpenses, toAny(CSVHeader), rows); err != nil {
		return err
	}
	f.SetColWidth(sheetExpenses, "A", "A", 8)
	f.SetColWidth(sheetExpenses, "B", "B", 12)
	f.SetColWidth(sheetExpenses, "C", "C", 15)
	f.SetColWidth(sheetExpenses, "D", "D", 12)
	f.SetColWidth(sheetExpenses, "E", "E", 30)

	rows = rows[:0]
	for _, c := range r.Categories {
		rows = append(rows, []any{c.Name, c.Amount.Float64(), core.Share(c.Amount, r.Summary.Total)})
	}
	if _, err := f.NewSheet(sheetCategories); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetCategories, err)
	}
	if err := writeSheet(f, sheetCategories, []any{"category", "total", "share_percent"}, rows); err != nil {
		return err
	}
	f.SetColWidth(sheetCategories, "A", "A", 15)

	rows = rows[:0]
	for _, m := range r.Monthly {
		rows = append(rows, []any{m.Month, m.Amount.Float64()})
	}
	if _, err := f.NewSheet(sheetMonthly); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetMonthly, err)
	}
	if err := writeSheet(f, sheetMonthly, []any{"month", "total"}, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
