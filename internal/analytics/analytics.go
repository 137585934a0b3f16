// Package analytics derives summaries and category breakdowns from a ledger
// snapshot. Every function here is pure: it never touches a store, so results
// only depend on the transactions passed in.
package analytics

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Summarize totals income and expense in integer cents.
func Summarize(txs []core.Transaction) core.Summary {
	var s core.Summary
	for _, t := range txs {
		switch t.Type() {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	s.TransactionCount = len(txs)
	return s
}

// BreakdownByCategory sums amounts per category for one transaction type.
// Groups appear in the order their category is first seen in txs, and only
// categories with at least one transaction are emitted.
func BreakdownByCategory(txs []core.Transaction, typ core.Type) []core.CategoryAmount {
	out := []core.CategoryAmount{}
	index := make(map[core.Category]int)
	var total core.Money

	for _, t := range txs {
		if t.Type() != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, core.CategoryAmount{Category: t.Category})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		total = total.Add(t.Amount)
	}

	for i := range out {
		out[i].Percentage = percentage(out[i].Amount, total)
	}
	return out
}

// Analyze computes both breakdowns.
func Analyze(txs []core.Transaction) core.Analytics {
	return core.Analytics{
		ExpenseByCategory: BreakdownByCategory(txs, core.Expense),
		IncomeByCategory:  BreakdownByCategory(txs, core.Income),
	}
}

// percentage returns part/total*100 rounded half-up to two places, or 0 when
// total is 0.
func percentage(part, total core.Money) decimal.Decimal {
	if total.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).
		Mul(hundred).
		DivRound(decimal.NewFromInt(total.Cents), 2)
}
