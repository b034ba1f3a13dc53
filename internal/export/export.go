// Package export renders the stored expenses into files people open
// elsewhere: CSV for round-tripping through import, XLSX for spreadsheets,
// PDF for a printable summary.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cashcraft/internal/core"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: must be csv, xlsx or pdf", s)
	}
}

// Source is the read side of the expense store.
type Source interface {
	QueryAll(ctx context.Context) ([]core.Expense, error)
	QueryCategoryTotals(ctx context.Context) (map[string]core.Money, error)
	MonthlyTotals(ctx context.Context) ([]core.MonthAmount, error)
	Summary(ctx context.Context) (core.Summary, error)
}

// Report is a consistent snapshot of everything the writers render.
type Report struct {
	Expenses   []core.Expense
	Categories []core.CategoryAmount
	Monthly    []core.MonthAmount
	Summary    core.Summary
}

// Load reads a Report from src.
func Load(ctx context.Context, src Source) (*Report, error) {
	expenses, err := src.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := src.QueryCategoryTotals(ctx)
	if err != nil {
		return nil, err
	}
	monthly, err := src.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := src.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{
		Expenses:   expenses,
		Categories: core.SortedCategories(totals),
		Monthly:    monthly,
		Summary:    summary,
	}, nil
}

// Write renders r to w in the given format.
func Write(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r.Expenses)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
