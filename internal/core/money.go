// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal.Decimal is only used at the
// edges to parse user input and render two-digit strings.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds a single transaction. It does not bound ledger sums:
// int64 cents overflow after about 92 thousand maximal rows, and Money.Add
// does not check for that.
var maxAmount = decimal.New(1, 12)

// ParseAmount converts a decimal string to Money.
//
// Only a dot is accepted as decimal separator and half-up rounding is applied
// on the third decimal place. Signed, zero and malformed values are rejected
// with a ValidationError, as is any comma: "1,200" is ambiguous between
// grouping and a decimal separator.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
//	ParseAmount("12.344") -> 1234 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") || strings.Contains(s, ",") {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal rounds d half-up to cents and checks it is positive.
func AmountFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.IsPositive() || d.GreaterThan(maxAmount) {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return Money{}, invalid("amount", ErrInvalidAmount)
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m with exactly two fractional digits, e.g. "1200.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
