package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror keeps an external copy of the ledger rows. Both
	// operations are idempotent so events may be redelivered.
	TransactionMirror interface {
		AppendTransaction(ctx context.Context, t core.Transaction) error
		RemoveTransaction(ctx context.Context, id string) error
	}

	// TransactionLister returns the ids currently present in a mirror.
	TransactionLister interface {
		ListTransactionIDs(ctx context.Context) ([]string, error)
	}
)
