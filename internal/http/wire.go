package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// amount renders Money as a bare JSON number with two fraction digits.
type amount core.Money

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(a).String()), nil
}

// percent renders a percentage as a JSON number with two fraction digits.
type percent decimal.Decimal

func (p percent) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(p).StringFixed(2)), nil
}

// flexAmount accepts a JSON number or a numeric string and keeps its text.
type flexAmount struct {
	text string
	set  bool
}

var errAmountType = errors.New("amount must be a number or a numeric string")

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.text, f.set = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return core.NewValidationError("amount", errAmountType)
	}
	f.text, f.set = n.String(), true
	return nil
}

type createTransactionRequest struct {
	Date        string     `json:"date"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      flexAmount `json:"amount"`
	Type        string     `json:"type"`
}

// toInput checks fields in the order a client fills them in and returns the
// first problem as a ValidationError.
func (r createTransactionRequest) toInput() (core.TransactionInput, error) {
	typ, err := core.ParseType(r.Type)
	if err != nil {
		return core.TransactionInput{}, err
	}
	category, err := core.ParseCategory(typ, r.Category)
	if err != nil {
		return core.TransactionInput{}, err
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.TransactionInput{}, err
	}
	if !r.Amount.set {
		return core.TransactionInput{}, core.NewValidationError("amount", core.ErrInvalidAmount)
	}
	money, err := core.ParseAmount(r.Amount.text)
	if err != nil {
		return core.TransactionInput{}, err
	}

	in := core.TransactionInput{
		Date:        date,
		Category:    category,
		Description: r.Description,
		Amount:      money,
	}
	return in, in.Validate()
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      amount    `json:"amount"`
	Type        core.Type `json:"type"`
	CreatedAt   string    `json:"created_at"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Date:        t.Date.String(),
		Category:    t.Category.Name(),
		Description: t.Description,
		Amount:      amount(t.Amount),
		Type:        t.Type(),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

type summaryResponse struct {
	TotalIncome      amount `json:"total_income"`
	TotalExpense     amount `json:"total_expense"`
	NetBalance       amount `json:"net_balance"`
	TransactionCount int    `json:"transaction_count"`
}

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		TotalIncome:      amount(s.TotalIncome),
		TotalExpense:     amount(s.TotalExpense),
		NetBalance:       amount(s.NetBalance),
		TransactionCount: s.TransactionCount,
	}
}

type categoryAmountResponse struct {
	Category   string  `json:"category"`
	Amount     amount  `json:"amount"`
	Percentage percent `json:"percentage"`
}

type analyticsResponse struct {
	ExpenseByCategory []categoryAmountResponse `json:"expense_by_category"`
	IncomeByCategory  []categoryAmountResponse `json:"income_by_category"`
}

func newBreakdown(items []core.CategoryAmount) []categoryAmountResponse {
	out := make([]categoryAmountResponse, 0, len(items))
	for _, it := range items {
		out = append(out, categoryAmountResponse{
			Category:   it.Category.Name(),
			Amount:     amount(it.Amount),
			Percentage: percent(it.Percentage),
		})
	}
	return out
}

func newAnalyticsResponse(a core.Analytics) analyticsResponse {
	return analyticsResponse{
		ExpenseByCategory: newBreakdown(a.ExpenseByCategory),
		IncomeByCategory:  newBreakdown(a.IncomeByCategory),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
