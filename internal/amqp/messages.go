package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

type EventKind string

const (
	KindCreated EventKind = "transaction.created"
	KindDeleted EventKind = "transaction.deleted"
)

// TransactionEvent announces a ledger mutation. Created events carry the whole
// record so consumers never need to read the ledger back.
type TransactionEvent struct {
	Kind        EventKind `json:"kind"`
	ID          string    `json:"id"`
	Date        string    `json:"date,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewCreatedEvent(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Kind:        KindCreated,
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        t.Type().String(),
		Category:    t.Category.Name(),
		Description: t.Description,
		Amount:      t.Amount.String(),
		Timestamp:   time.Now().UTC(),
	}
}

func NewDeletedEvent(id string) *TransactionEvent {
	return &TransactionEvent{
		Kind:      KindDeleted,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.ID == "" {
		return nil, errors.New("event without id")
	}
	switch ev.Kind {
	case KindCreated, KindDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return &ev, nil
}

// Transaction rebuilds the record carried by a created event.
func (e *TransactionEvent) Transaction() (core.Transaction, error) {
	if e.Kind != KindCreated {
		return core.Transaction{}, fmt.Errorf("%s event carries no transaction", e.Kind)
	}
	typ, err := core.ParseType(e.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := core.ParseCategory(typ, e.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(e.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(e.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          e.ID,
		Date:        date,
		Category:    cat,
		Description: e.Description,
		Amount:      amount,
	}, nil
}
