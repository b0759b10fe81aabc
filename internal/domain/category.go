package domain

// Category is the fixed spending category taxonomy. Budgets only make sense
// for expense categories; Income exists so income transactions can be
// labelled consistently.
type Category string

const (
	CategoryFood     Category = "Food"
	CategoryTravel   Category = "Travel"
	CategoryBills    Category = "Bills"
	CategoryShopping Category = "Shopping"
	CategoryHealth   Category = "Health"
	CategoryIncome   Category = "Income"
)

// DefaultCategory is the fallback used when an external source (receipt
// extraction) produces a category outside the fixed set.
const DefaultCategory = CategoryShopping

// AllCategories lists every category, expense categories first.
func AllCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryTravel,
		CategoryBills,
		CategoryShopping,
		CategoryHealth,
		CategoryIncome,
	}
}

// ExpenseCategories lists the categories a budget or expense may use.
func ExpenseCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryTravel,
		CategoryBills,
		CategoryShopping,
		CategoryHealth,
	}
}

// ParseCategory validates a raw string against the fixed category set.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// CoerceCategory maps any unrecognized value to DefaultCategory.
func CoerceCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return DefaultCategory
}
