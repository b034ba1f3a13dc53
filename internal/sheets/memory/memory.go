package memory

import (
	"context"
	"sync"

	"cashcraft/internal/core"
	ports "cashcraft/internal/sheets"
)

// Mirror keeps mirrored rows in process memory, standing in for a
// spreadsheet in tests.
type Mirror struct {
	mu    sync.Mutex
	items []core.Expense
	err   error
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// LastMirroredID returns the highest id appended so far.
func (m *Mirror) LastMirroredID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var last int64
	for _, e := range m.items {
		if e.ID > last {
			last = e.ID
		}
	}
	return last, nil
}

// AppendExpenses stores copies of the given rows.
func (m *Mirror) AppendExpenses(_ context.Context, expenses []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, expenses...)
	return nil
}

// Rows returns a snapshot of everything appended.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Expense(nil), m.items...)
}

// FailWith makes every following call return err; nil clears it.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
