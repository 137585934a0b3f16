package core

import "github.com/shopspring/decimal"

// Summary holds ledger-wide totals. It is always derived from a Snapshot and
// never stored.
type Summary struct {
	TotalIncome      Money
	TotalExpense     Money
	NetBalance       Money
	TransactionCount int
}

// CategoryAmount is the subtotal of one category within a transaction type.
type CategoryAmount struct {
	Category   Category
	Amount     Money
	Percentage decimal.Decimal // share of the type total, two decimal places
}

// Analytics groups the per-category breakdowns of both ledger sides.
type Analytics struct {
	ExpenseByCategory []CategoryAmount
	IncomeByCategory  []CategoryAmount
}
