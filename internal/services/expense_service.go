package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cashcraft/internal/core"
	applog "cashcraft/internal/log"
)

// Store is the persistence contract the service drives. The SQLite
// repository satisfies it.
type Store interface {
	Initialize(ctx context.Context) error
	Insert(ctx context.Context, e core.Expense) (int64, error)
	QueryAll(ctx context.Context) ([]core.Expense, error)
	QueryCategoryTotals(ctx context.Context) (map[string]core.Money, error)
	MonthlyTotals(ctx context.Context) ([]core.MonthAmount, error)
	Summary(ctx context.Context) (core.Summary, error)
	Close() error
}

// Publisher announces committed expenses to other processes.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.Expense) error
	Close() error
}

// ExpenseService validates expenses before they reach the store and
// publishes an event for every committed row.
type ExpenseService struct {
	storage   Store
	publisher Publisher
}

// NewExpenseService wires a store with an optional publisher. A nil
// publisher disables events.
func NewExpenseService(storage Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// Initialize prepares the underlying store; safe to call repeatedly.
func (s *ExpenseService) Initialize(ctx context.Context) error {
	return s.storage.Initialize(ctx)
}

// Insert validates e, commits it and returns the assigned id. Nothing is
// written when validation fails.
func (s *ExpenseService) Insert(ctx context.Context, e core.Expense) (int64, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentExpense)
	fields := applog.NewFields().
		WithOperation(applog.OpInsert).
		WithExpense(e.Date.String(), e.Category, e.Amount.Cents)

	if err := e.Validate(); err != nil {
		logger.WarnContext(ctx, "Rejected expense",
			fields.WithErrorType(applog.ErrorTypeValidation).WithError(err).ToSlice()...)
		return 0, err
	}

	id, err := s.storage.Insert(ctx, e)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to store expense",
			fields.WithErrorType(applog.ErrorTypeDatabase).WithError(err).ToSlice()...)
		return 0, err
	}
	e.ID = id

	// The row is committed; a failed publish must not fail the insert
	if err := s.publish(ctx, e); err != nil {
		logger.ErrorContext(ctx, "Failed to publish expense recorded message",
			fields.With(applog.FieldExpenseID, id).WithErrorType(applog.ErrorTypeNetwork).WithError(err).ToSlice()...)
	}

	return id, nil
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping expense event")
		return nil
	}
	return s.publisher.PublishExpenseRecorded(ctx, e)
}

// QueryAll lists every expense, newest date first.
func (s *ExpenseService) QueryAll(ctx context.Context) ([]core.Expense, error) {
	return s.storage.QueryAll(ctx)
}

func (s *ExpenseService) QueryCategoryTotals(ctx context.Context) (map[string]core.Money, error) {
	return s.storage.QueryCategoryTotals(ctx)
}

func (s *ExpenseService) MonthlyTotals(ctx context.Context) ([]core.MonthAmount, error) {
	return s.storage.MonthlyTotals(ctx)
}

func (s *ExpenseService) Summary(ctx context.Context) (core.Summary, error) {
	return s.storage.Summary(ctx)
}

// Close closes both storage and publisher. Repeated calls are harmless.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
