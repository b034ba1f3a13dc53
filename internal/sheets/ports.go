package sheets

import (
	"context"

	"cashcraft/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror is an append-only copy of the expense table kept
	// somewhere outside the local store.
	ExpenseMirror interface {
		// LastMirroredID returns the highest expense id already present,
		// or 0 when the mirror is empty.
		LastMirroredID(ctx context.Context) (int64, error)
		// AppendExpenses adds rows in the order given.
		AppendExpenses(ctx context.Context, expenses []core.Expense) error
	}
)
