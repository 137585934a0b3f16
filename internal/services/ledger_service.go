package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// EventPublisher announces ledger mutations to downstream consumers.
type EventPublisher interface {
	PublishCreated(ctx context.Context, t core.Transaction) error
	PublishDeleted(ctx context.Context, id string) error
}

var _ ledger.Store = (*LedgerService)(nil)

// LedgerService is a ledger.Store that publishes an event after every
// successful mutation. The store stays the source of truth: a failed publish
// is logged and never fails the mutation.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
}

// NewLedgerService wraps store. publisher may be nil.
func NewLedgerService(store ledger.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

func (s *LedgerService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	t, err := s.store.Create(ctx, in)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"type", t.Type(),
		"category", t.Category.Name(),
		"amount", t.Amount.String())

	if s.publisher == nil {
		return t, nil
	}
	if err := s.publisher.PublishCreated(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish created event", "id", t.ID, "error", err)
	}
	return t, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishDeleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish deleted event", "id", id, "error", err)
	}
	return nil
}

func (s *LedgerService) Scan(ctx context.Context) (core.Snapshot, error) {
	return s.store.Scan(ctx)
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
