package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"cashcraft/internal/core"
	"cashcraft/internal/storage"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []core.Expense
	err       error
	closed    int
}

func (p *fakePublisher) PublishExpenseRecorded(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed++
	return nil
}

func newTestService(t *testing.T, pub Publisher) *ExpenseService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "expenses.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	svc := NewExpenseService(repo, pub)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func expense(date, category string, cents int64, desc string) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{Date: d, Category: category, Amount: core.Money{Cents: cents}, Description: desc}
}

func TestExpenseService_InsertPublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	id, err := svc.Insert(ctx, expense("2024-04-01", "Food", 1299, "pizza"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.published))
	}
	if pub.published[0].ID != id || pub.published[0].Amount.Cents != 1299 {
		t.Fatalf("unexpected event: %+v", pub.published[0])
	}
}

func TestExpenseService_PublishFailureKeepsRow(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if _, err := svc.Insert(ctx, expense("2024-04-01", "Bills", 5000, "")); err != nil {
		t.Fatalf("insert must succeed when publish fails: %v", err)
	}
	all, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected committed row, got %d", len(all))
	}
}

func TestExpenseService_InsertRejectsInvalid(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if _, err := svc.Insert(ctx, expense("2024-01-01", "Food", 100, "")); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	tests := []struct {
		name  string
		e     core.Expense
		field string
	}{
		{"zero amount", expense("2024-01-02", "Food", 0, ""), "amount"},
		{"negative amount", expense("2024-01-02", "Food", -500, ""), "amount"},
		{"missing date", core.Expense{Category: "Food", Amount: core.Money{Cents: 100}}, "date"},
		{"blank category", expense("2024-01-02", "   ", 100, ""), "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Insert(ctx, tt.e)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, ve.Field)
			}
		})
	}

	all, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("rejected inserts must not change the store, got %d rows", len(all))
	}
	if len(pub.published) != 1 {
		t.Fatalf("rejected inserts must not publish, got %d events", len(pub.published))
	}
}

func TestExpenseService_TotalsMatchRows(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	rows := []core.Expense{
		expense("2024-01-01", "Food", 1000, ""),
		expense("2024-01-02", "Food", 550, ""),
		expense("2024-01-03", "Bills", 300, ""),
		expense("2024-02-03", "Transport", 1, ""),
	}
	for _, e := range rows {
		if _, err := svc.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	want := map[string]int64{}
	for _, e := range all {
		want[e.Category] += e.Amount.Cents
	}

	totals, err := svc.QueryCategoryTotals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != len(want) {
		t.Fatalf("category set mismatch: %v vs %v", totals, want)
	}
	for k, v := range want {
		if totals[k].Cents != v {
			t.Errorf("%s: totals %d, rows %d", k, totals[k].Cents, v)
		}
	}

	s, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Count != 4 || s.Total.Cents != 1851 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestExpenseService_CloseTwice(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)

	if err := svc.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	_, err := svc.Insert(context.Background(), expense("2024-01-01", "Food", 100, ""))
	if !core.IsStorage(err) {
		t.Fatalf("expected storage error after close, got %v", err)
	}
}

func TestExpenseService_CloseNilComponents(t *testing.T) {
	service := &ExpenseService{}
	if err := service.Close(); err != nil {
		t.Fatalf("Close should not return error with nil components: %v", err)
	}
}
