package google

import (
	"fmt"
	"strings"

	"ledger/internal/core"
)

// Header is the expected first row of the mirror sheet.
var Header = []any{"ID", "Date", "Type", "Category", "Description", "Amount"}

func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		t.Type().String(),
		t.Category.Name(),
		t.Description,
		t.Amount.String(),
	}
}

// firstColumn flattens a Sheets values matrix to its column A. Empty rows
// keep their position so indexes map back to row numbers.
func firstColumn(values [][]interface{}) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
	}
	return out
}

// findRow returns the zero-based row index holding id, or -1.
func findRow(ids []string, id string) int {
	if id == "" {
		return -1
	}
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func isHeader(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "id")
}
