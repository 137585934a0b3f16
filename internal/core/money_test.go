package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"3000.00", 300000, true},
		{"-5.00", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"10000000000000", 0, false},
		{"1,23", 0, false},
		{"1,200", 0, false},
		{"1,200.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if !errors.Is(err, ErrInvalidAmount) || !IsValidation(err) {
			t.Fatalf("%q expected invalid amount validation error, got %v", tc.in, err)
		}
	}
}

func TestAmountFromDecimalRejectsNegative(t *testing.T) {
	if _, err := AmountFromDecimal(decimal.RequireFromString("-5.00")); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		1:       "0.01",
		120000:  "1200.00",
		-180000: "-1800.00",
		123456:  "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}
