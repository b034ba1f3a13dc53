package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cashcraft/internal/core"
	applog "cashcraft/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable expense store. It assumes a single logical
// writer; the pool is capped at one connection.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	dsn     string

	closeOnce sync.Once
	closeErr  error
}

// Open opens the store file without touching the schema. Call Initialize
// before the first insert or query.
func Open(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("create db directory: %w", err)}
		}
	}

	dsn := buildDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("open sqlite database: %w", err)}
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "open", Err: fmt.Errorf("ping database: %w", err)}
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		dsn:     dsn,
	}, nil
}

// NewSQLiteRepository opens the store and ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	repo, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := repo.Initialize(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// Initialize creates the expenses table when absent. Existing rows are never
// touched, so calling it on every start is cheap and safe.
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := RunMigrations(r.dsn); err != nil {
		return &core.StorageError{Op: "initialize", Err: err}
	}
	slog.DebugContext(ctx, "Expense store initialized")
	return nil
}

// Close releases the handle. Later calls return the first result.
func (r *SQLiteRepository) Close() error {
	r.closeOnce.Do(func() {
		if r.db != nil {
			r.closeErr = r.db.Close()
		}
	})
	return r.closeErr
}

// Insert appends a row and returns its id. The statement runs in autocommit
// mode, so the row is durable when Insert returns. Input is not validated
// here; see services.ExpenseService.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Date:        e.Date.String(),
		Category:    e.Category,
		Amount:      e.Amount.Float64(),
		Description: e.Description,
	})
	if err != nil {
		return 0, &core.StorageError{Op: "insert", Err: err}
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentStorage).InfoContext(ctx, "Expense saved to SQLite",
		applog.FieldExpenseID, id,
		applog.FieldDate, e.Date.String(),
		applog.FieldCategory, e.Category,
		applog.FieldAmountCents, e.Amount.Cents)

	return id, nil
}

// QueryAll returns every row, newest date first.
func (r *SQLiteRepository) QueryAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "query all", Err: err}
	}
	out, err := toCore(rows)
	if err != nil {
		return nil, &core.StorageError{Op: "query all", Err: err}
	}
	return out, nil
}

// ListAfter returns up to limit rows with id > afterID in id order.
func (r *SQLiteRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesAfter(ctx, ListExpensesAfterParams{
		AfterID: afterID,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, &core.StorageError{Op: "list after", Err: err}
	}
	out, err := toCore(rows)
	if err != nil {
		return nil, &core.StorageError{Op: "list after", Err: err}
	}
	return out, nil
}

// QueryCategoryTotals sums amounts per category. Categories without rows are absent.
func (r *SQLiteRepository) QueryCategoryTotals(ctx context.Context) (map[string]core.Money, error) {
	rows, err := r.queries.GetCategoryTotals(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "category totals", Err: err}
	}

	totals := make(map[string]core.Money, len(rows))
	for _, row := range rows {
		// NULL and '' categories land on the same key
		totals[row.Category] = totals[row.Category].Add(core.Money{Cents: row.TotalCents})
	}
	return totals, nil
}

// MonthlyTotals sums amounts per calendar month, oldest first.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context) ([]core.MonthAmount, error) {
	rows, err := r.queries.GetMonthlyTotals(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "monthly totals", Err: err}
	}

	out := make([]core.MonthAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.MonthAmount{
			Month:  row.Month,
			Amount: core.Money{Cents: row.TotalCents},
		})
	}
	return out, nil
}

// Summary returns count, total, average and the date span of the store.
func (r *SQLiteRepository) Summary(ctx context.Context) (core.Summary, error) {
	row, err := r.queries.GetSummary(ctx)
	if err != nil {
		return core.Summary{}, &core.StorageError{Op: "summary", Err: err}
	}

	total := core.Money{Cents: row.TotalCents}
	s := core.Summary{
		Total:   total,
		Count:   row.Count,
		Average: total.Average(row.Count),
	}
	if row.Count > 0 {
		if s.Earliest, err = parseStoredDate(row.Earliest); err != nil {
			return core.Summary{}, &core.StorageError{Op: "summary", Err: err}
		}
		if s.Latest, err = parseStoredDate(row.Latest); err != nil {
			return core.Summary{}, &core.StorageError{Op: "summary", Err: err}
		}
	}
	return s, nil
}

func toCore(rows []Expense) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := parseStoredDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		out = append(out, core.Expense{
			ID:          row.ID,
			Date:        d,
			Category:    row.Category,
			Amount:      core.MoneyFromFloat(row.Amount),
			Description: row.Description,
		})
	}
	return out, nil
}

// parseStoredDate accepts YYYY-MM-DD with an optional time suffix, which is
// how some spreadsheet tools write dates into imported files.
func parseStoredDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(core.DateLayout) {
		s = s[:len(core.DateLayout)]
	}
	return core.ParseDate(s)
}
