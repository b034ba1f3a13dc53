// Package importer loads expenses in bulk from CSV files. Bad rows are
// skipped and reported; they never abort the batch.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"cashcraft/internal/core"
	applog "cashcraft/internal/log"
)

// Column names recognised in the header row, matched case-insensitively.
const (
	ColumnDate        = "date"
	ColumnCategory    = "category"
	ColumnAmount      = "amount"
	ColumnDescription = "description"
)

var ErrMissingColumn = errors.New("missing required column")

// Inserter receives one call per accepted row.
type Inserter interface {
	Insert(ctx context.Context, e core.Expense) (int64, error)
}

// Result reports the outcome of one import.
type Result struct {
	BatchID  string
	Imported []int64
	Skipped  []*core.ImportRowError
}

type columns struct {
	date, category, amount, description int
}

// Import reads a CSV document from r and inserts every valid row through
// dst. A storage failure stops the import; rows committed before it stay.
func Import(ctx context.Context, r io.Reader, dst Inserter) (*Result, error) {
	res := &Result{BatchID: uuid.NewString()}
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentImporter).
		With(applog.FieldOperation, applog.OpImport, applog.FieldBatchID, res.BatchID)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return res, fmt.Errorf("read CSV header: %w", ErrMissingColumn)
	}
	if err != nil {
		return res, fmt.Errorf("read CSV header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return res, err
	}

	row := 0
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return res, fmt.Errorf("read CSV row %d: %w", row, err)
			}
			res.skip(ctx, logger, row, err)
			continue
		}

		e, err := cols.expense(record)
		if err != nil {
			res.skip(ctx, logger, row, err)
			continue
		}

		id, err := dst.Insert(ctx, e)
		if err != nil {
			if core.IsValidation(err) {
				res.skip(ctx, logger, row, err)
				continue
			}
			logger.ErrorContext(ctx, "Import aborted",
				applog.FieldRow, row,
				applog.FieldError, err)
			return res, err
		}
		res.Imported = append(res.Imported, id)
	}

	logger.InfoContext(ctx, "Import finished",
		applog.FieldCount, len(res.Imported),
		"skipped", len(res.Skipped))

	return res, nil
}

func (res *Result) skip(ctx context.Context, logger *applog.Logger, row int, err error) {
	rowErr := &core.ImportRowError{Row: row, Err: err}
	res.Skipped = append(res.Skipped, rowErr)
	logger.WarnContext(ctx, "Skipped CSV row",
		applog.FieldRow, row,
		applog.FieldErrorType, applog.ErrorTypeImportRow,
		applog.FieldError, err)
}

func parseHeader(header []string) (columns, error) {
	cols := columns{date: -1, category: -1, amount: -1, description: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch name {
		case ColumnDate:
			cols.date = i
		case ColumnCategory:
			cols.category = i
		case ColumnAmount:
			cols.amount = i
		case ColumnDescription:
			cols.description = i
		}
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, ColumnDate)
	}
	if cols.category < 0 {
		missing = append(missing, ColumnCategory)
	}
	if cols.amount < 0 {
		missing = append(missing, ColumnAmount)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c columns) expense(record []string) (core.Expense, error) {
	rawDate := field(record, c.date)
	category := field(record, c.category)
	rawAmount := field(record, c.amount)

	switch {
	case rawDate == "":
		return core.Expense{}, &core.ValidationError{Field: ColumnDate, Err: core.ErrMissingField}
	case category == "":
		return core.Expense{}, &core.ValidationError{Field: ColumnCategory, Err: core.ErrMissingField}
	case rawAmount == "":
		return core.Expense{}, &core.ValidationError{Field: ColumnAmount, Err: core.ErrMissingField}
	}

	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: ColumnDate, Err: err}
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: ColumnAmount, Err: err}
	}

	return core.Expense{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: field(record, c.description),
	}, nil
}
