package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cashcraft/internal/amqp"
	"cashcraft/internal/core"
	"cashcraft/internal/sheets"
)

// ExpenseSource pages through the local store in id order.
type ExpenseSource interface {
	ListAfter(ctx context.Context, afterID int64, limit int) ([]core.Expense, error)
}

// MirrorWorker copies expenses from the local store into an append-only
// mirror. Every pass appends rows with ids above the mirror's highest id, so
// repeated or concurrent triggers never duplicate rows.
type MirrorWorker struct {
	source    ExpenseSource
	mirror    sheets.ExpenseMirror
	batchSize int

	mu     sync.Mutex
	lastID int64
	known  bool
}

func NewMirrorWorker(source ExpenseSource, mirror sheets.ExpenseMirror, batchSize int) *MirrorWorker {
	if batchSize < 1 {
		batchSize = 100
	}
	return &MirrorWorker{
		source:    source,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleRecorded reacts to an expense event by catching the mirror up.
// Events that do not decode to an expense are dropped, since requeueing
// them would never succeed.
func (w *MirrorWorker) HandleRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	e, err := msg.Expense()
	if err != nil {
		slog.WarnContext(ctx, "Dropping malformed expense message", "id", msg.ID, "error", err)
		return nil
	}
	slog.DebugContext(ctx, "Processing expense recorded message",
		"id", e.ID, "date", e.Date, "category", e.Category, "amount", e.Amount)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.known && msg.ID <= w.lastID {
		slog.DebugContext(ctx, "Expense already mirrored", "id", msg.ID, "last_id", w.lastID)
		return nil
	}

	n, err := w.catchUpLocked(ctx)
	if err != nil {
		return err
	}
	if msg.ID > w.lastID {
		// Event from a store this worker does not read; nothing to copy
		slog.WarnContext(ctx, "Expense from message not found in local store",
			"id", msg.ID, "last_id", w.lastID, "mirrored", n)
	}
	return nil
}

// CatchUp appends every row the mirror is missing and returns how many it
// wrote.
func (w *MirrorWorker) CatchUp(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.catchUpLocked(ctx)
}

func (w *MirrorWorker) catchUpLocked(ctx context.Context) (int, error) {
	if !w.known {
		last, err := w.mirror.LastMirroredID(ctx)
		if err != nil {
			return 0, fmt.Errorf("read mirror position: %w", err)
		}
		w.lastID, w.known = last, true
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		rows, err := w.source.ListAfter(ctx, w.lastID, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("list expenses after %d: %w", w.lastID, err)
		}
		if len(rows) == 0 {
			break
		}

		if err := w.mirror.AppendExpenses(ctx, rows); err != nil {
			// The append may have partially landed; re-read the position next time
			w.known = false
			return total, fmt.Errorf("append to mirror: %w", err)
		}
		w.lastID = rows[len(rows)-1].ID
		total += len(rows)

		if len(rows) < w.batchSize {
			break
		}
	}

	if total > 0 {
		slog.InfoContext(ctx, "Mirror caught up", "appended", total, "last_id", w.lastID)
	}
	return total, nil
}

// Run catches up immediately and then on every tick until ctx is done.
// Failed passes are logged and retried on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.CatchUp(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Mirror catch-up failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Mirror worker stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}
