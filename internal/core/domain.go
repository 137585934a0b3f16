package core

import (
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the wire and storage format of a transaction date.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	// Type is the side of the ledger a transaction contributes to.
	Type string

	Date struct {
		time.Time
	}

	// Money is an exact amount in cents. Sign is never used to encode direction.
	Money struct {
		Cents int64
	}

	// Transaction is a stored ledger record. Its type is carried by Category.
	Transaction struct {
		ID          string
		Date        Date
		Category    Category
		Description string
		Amount      Money
		CreatedAt   time.Time
	}

	// TransactionInput is what a caller supplies to create a transaction.
	TransactionInput struct {
		Date        Date
		Category    Category
		Description string
		Amount      Money
	}

	// Snapshot is the full transaction set observed at one instant.
	// Revision changes whenever the set changes.
	Snapshot struct {
		Revision     uint64
		Transactions []Transaction
	}
)

// ParseType parses "income" or "expense" (case-insensitive).
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid("type", ErrInvalidType)
	}
	return t, nil
}

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

func (t Type) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Type returns the ledger side, derived from the category.
func (t Transaction) Type() Type {
	return t.Category.Type()
}

func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if in.Category.IsZero() {
		return invalid("category", ErrInvalidCategory)
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if len([]rune(desc)) > maxDescriptionLen {
		return invalid("description", ErrDescriptionTooLong)
	}
	return in.Amount.Validate()
}

// Len returns the number of transactions in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Transactions)
}
