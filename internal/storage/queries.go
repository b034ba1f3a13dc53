package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the SQL for the expenses table, one method per statement.
type Queries struct {
	db DBTX
}

// Expense is a raw row. Columns are nullable in files written by older
// versions, so reads coalesce NULLs to zero values.
type Expense struct {
	ID          int64
	Date        string
	Category    string
	Amount      float64
	Description string
}

const createExpense = `
INSERT INTO expenses (date, category, amount, description)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateExpenseParams struct {
	Date        string
	Category    string
	Amount      float64
	Description string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Date,
		arg.Category,
		arg.Amount,
		arg.Description,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const selectColumns = `
SELECT id,
       COALESCE(date, ''),
       COALESCE(category, ''),
       COALESCE(amount, 0.0),
       COALESCE(description, '')
FROM expenses
`

// Same-date rows come back newest insert first.
const listExpenses = selectColumns + `ORDER BY date DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const listExpensesAfter = selectColumns + `WHERE id > ? ORDER BY id ASC LIMIT ?`

type ListExpensesAfterParams struct {
	AfterID int64
	Limit   int64
}

func (q *Queries) ListExpensesAfter(ctx context.Context, arg ListExpensesAfterParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesAfter, arg.AfterID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Date,
			&i.Category,
			&i.Amount,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Amounts are summed as whole cents so totals are exact.
const getCategoryTotals = `
SELECT COALESCE(category, '') AS category,
       CAST(SUM(ROUND(COALESCE(amount, 0) * 100)) AS INTEGER) AS total_cents
FROM expenses
GROUP BY category
`

type GetCategoryTotalsRow struct {
	Category   string
	TotalCents int64
}

func (q *Queries) GetCategoryTotals(ctx context.Context) ([]GetCategoryTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategoryTotals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCategoryTotalsRow
	for rows.Next() {
		var i GetCategoryTotalsRow
		if err := rows.Scan(&i.Category, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Calendar-month buckets: the YYYY-MM prefix of the ISO date.
const getMonthlyTotals = `
SELECT substr(COALESCE(date, ''), 1, 7) AS month,
       CAST(SUM(ROUND(COALESCE(amount, 0) * 100)) AS INTEGER) AS total_cents
FROM expenses
GROUP BY month
ORDER BY month ASC
`

type GetMonthlyTotalsRow struct {
	Month      string
	TotalCents int64
}

func (q *Queries) GetMonthlyTotals(ctx context.Context) ([]GetMonthlyTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, getMonthlyTotals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetMonthlyTotalsRow
	for rows.Next() {
		var i GetMonthlyTotalsRow
		if err := rows.Scan(&i.Month, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSummary = `
SELECT COUNT(*) AS count,
       CAST(COALESCE(SUM(ROUND(COALESCE(amount, 0) * 100)), 0) AS INTEGER) AS total_cents,
       COALESCE(MIN(date), '') AS earliest,
       COALESCE(MAX(date), '') AS latest
FROM expenses
`

type GetSummaryRow struct {
	Count      int64
	TotalCents int64
	Earliest   string
	Latest     string
}

func (q *Queries) GetSummary(ctx context.Context) (GetSummaryRow, error) {
	row := q.db.QueryRowContext(ctx, getSummary)
	var i GetSummaryRow
	err := row.Scan(&i.Count, &i.TotalCents, &i.Earliest, &i.Latest)
	return i, err
}
