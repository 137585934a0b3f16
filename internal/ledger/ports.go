// Package ledger defines the contract of the transaction store.
package ledger

import (
	"context"
	"sort"

	"ledger/internal/core"
)

// Store is the only shared mutable resource of the system. Implementations
// must serialise mutations against Scan so that a Scan never observes a
// partially applied Create or Delete.
type Store interface {
	// Create validates in, assigns a fresh id and persists the record.
	// Returns *core.ValidationError without mutating when in is invalid.
	Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error)

	// Delete removes the record with the given id, or returns
	// *core.NotFoundError if there is none.
	Delete(ctx context.Context, id string) error

	// Scan returns the full transaction set at a single logical instant.
	Scan(ctx context.Context) (core.Snapshot, error)
}

// SortForDisplay orders transactions most recent first: by date, then by
// creation time, then by id so the order is total.
func SortForDisplay(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
