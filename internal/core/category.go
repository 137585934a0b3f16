package core

import "strings"

// Category is a member of the closed category set. Each category belongs to
// exactly one Type; values can only be obtained from the variables below or
// through ParseCategory, so a (type, category) mismatch cannot be built.
type Category struct {
	kind Type
	name string
}

var (
	Salary      = Category{kind: Income, name: "Salary"}
	Freelance   = Category{kind: Income, name: "Freelance"}
	Investment  = Category{kind: Income, name: "Investment"}
	OtherIncome = Category{kind: Income, name: "Other Income"}

	Food           = Category{kind: Expense, name: "Food"}
	Rent           = Category{kind: Expense, name: "Rent"}
	Utilities      = Category{kind: Expense, name: "Utilities"}
	Transportation = Category{kind: Expense, name: "Transportation"}
	Entertainment  = Category{kind: Expense, name: "Entertainment"}
	Healthcare     = Category{kind: Expense, name: "Healthcare"}
	Shopping       = Category{kind: Expense, name: "Shopping"}
	Education      = Category{kind: Expense, name: "Education"}
	OtherExpense   = Category{kind: Expense, name: "Other Expense"}
)

var (
	incomeCategories = []Category{Salary, Freelance, Investment, OtherIncome}

	expenseCategories = []Category{
		Food, Rent, Utilities, Transportation, Entertainment,
		Healthcare, Shopping, Education, OtherExpense,
	}
)

// Categories returns the categories of the given type in display order.
func Categories(t Type) []Category {
	switch t {
	case Income:
		return append([]Category(nil), incomeCategories...)
	case Expense:
		return append([]Category(nil), expenseCategories...)
	default:
		return nil
	}
}

// ParseCategory resolves a category name within the given type. A name that
// belongs to the other type is rejected.
func ParseCategory(t Type, name string) (Category, error) {
	if !t.Valid() {
		return Category{}, invalid("type", ErrInvalidType)
	}
	name = strings.TrimSpace(name)
	for _, c := range Categories(t) {
		if c.name == name {
			return c, nil
		}
	}
	return Category{}, invalid("category", ErrInvalidCategory)
}

func (c Category) Type() Type {
	return c.kind
}

func (c Category) Name() string {
	return c.name
}

func (c Category) String() string {
	return c.name
}

func (c Category) IsZero() bool {
	return c == Category{}
}
