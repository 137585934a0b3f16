package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps the ledger in process memory.
type Store struct {
	mu       sync.RWMutex
	items    map[string]core.Transaction
	revision uint64

	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		items: make(map[string]core.Transaction),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create stores the transaction and returns it with its assigned id.
func (s *Store) Create(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.items[id]; taken; _, taken = s.items[id] {
		id = s.newID()
	}
	t := core.Transaction{
		ID:          id,
		Date:        in.Date,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		CreatedAt:   s.now(),
	}
	s.items[id] = t
	s.revision++
	return t, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return &core.NotFoundError{ID: id}
	}
	delete(s.items, id)
	s.revision++
	return nil
}

// Scan copies the current set under the read lock.
func (s *Store) Scan(_ context.Context) (core.Snapshot, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	rev := s.revision
	s.mu.RUnlock()

	ledger.SortForDisplay(out)
	return core.Snapshot{Revision: rev, Transactions: out}, nil
}
