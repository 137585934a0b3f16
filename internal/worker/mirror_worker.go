package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ledger/internal/amqp"
	"ledger/internal/ledger"
	"ledger/internal/sheets"
)

// MirrorWorker applies ledger events to an external mirror.
type MirrorWorker struct {
	mirror sheets.TransactionMirror
	source ledger.Store

	// mu serialises mirror writes. The Sheets client appends after reading
	// the ids, so interleaved writers could duplicate a row.
	mu sync.Mutex
}

// NewMirrorWorker creates a worker. source is optional and only used by
// Reconcile.
func NewMirrorWorker(mirror sheets.TransactionMirror, source ledger.Store) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, source: source}
}

// HandleEvent processes a single ledger event from AMQP. Returning an error
// requeues the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing ledger event", "kind", ev.Kind, "id", ev.ID)

	w.mu.Lock()
	defer w.mu.Unlock()

	switch ev.Kind {
	case amqp.KindCreated:
		t, err := ev.Transaction()
		if err != nil {
			// A malformed record will never succeed; drop it rather than requeue forever.
			slog.ErrorContext(ctx, "Dropping created event with invalid record", "id", ev.ID, "error", err)
			return nil
		}
		if err := w.mirror.AppendTransaction(ctx, t); err != nil {
			return fmt.Errorf("mirror append %s: %w", ev.ID, err)
		}
	case amqp.KindDeleted:
		if err := w.mirror.RemoveTransaction(ctx, ev.ID); err != nil {
			return fmt.Errorf("mirror remove %s: %w", ev.ID, err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown ledger event", "kind", ev.Kind, "id", ev.ID)
	}
	return nil
}

// Reconcile brings the mirror in line with the ledger after downtime or lost
// messages. It needs a source store and a mirror that can list its ids.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	lister, ok := w.mirror.(sheets.TransactionLister)
	if w.source == nil || !ok {
		slog.InfoContext(ctx, "Skipping mirror reconciliation", "has_source", w.source != nil, "can_list", ok)
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}
	mirrored, err := lister.ListTransactionIDs(ctx)
	if err != nil {
		return fmt.Errorf("list mirror: %w", err)
	}

	present := make(map[string]struct{}, len(mirrored))
	for _, id := range mirrored {
		present[id] = struct{}{}
	}
	live := make(map[string]struct{}, snap.Len())

	appended, removed, failed := 0, 0, 0
	// Oldest first so the sheet reads chronologically.
	for i := snap.Len() - 1; i >= 0; i-- {
		t := snap.Transactions[i]
		live[t.ID] = struct{}{}
		if _, ok := present[t.ID]; ok {
			continue
		}
		if err := w.mirror.AppendTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", t.ID, "error", err)
			failed++
			continue
		}
		appended++
	}
	for _, id := range mirrored {
		if _, ok := live[id]; ok {
			continue
		}
		if err := w.mirror.RemoveTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale mirror row", "id", id, "error", err)
			failed++
			continue
		}
		removed++
	}

	slog.InfoContext(ctx, "Mirror reconciliation completed",
		"revision", snap.Revision,
		"ledger", snap.Len(),
		"appended", appended,
		"removed", removed,
		"errors", failed)

	if failed > 0 {
		return fmt.Errorf("reconcile: %d rows failed", failed)
	}
	return nil
}
