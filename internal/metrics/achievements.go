package metrics

import (
	"time"

	"github.com/wealthwise/wealthwise/internal/domain"
)

// Snapshot is the full data set achievement predicates evaluate over.
type Snapshot struct {
	Transactions []domain.Transaction
	Budgets      []domain.Budget
	Bills        []domain.Bill
	Now          time.Time
}

// Achievement pairs an identifier with a pure unlock predicate. Unlocks
// are derived fresh on every evaluation, never persisted: a condition that
// later becomes false locks the achievement again.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Unlocked    func(Snapshot) bool
}

// EvaluatedAchievement is one achievement with its current unlock state.
type EvaluatedAchievement struct {
	Achievement
	IsUnlocked bool
}

// Achievements returns the fixed, ordered achievement list.
func Achievements() []Achievement {
	return []Achievement{
		{
			ID:          "first-budget",
			Name:        "Budget Beginner",
			Description: "Create your first budget to start tracking your spending.",
			Unlocked: func(s Snapshot) bool {
				return len(s.Budgets) > 0
			},
		},
		{
			ID:          "ten-transactions",
			Name:        "Transaction Titan",
			Description: "Add at least 10 transactions.",
			Unlocked: func(s Snapshot) bool {
				return len(s.Transactions) >= 10
			},
		},
		{
			ID:          "savvy-saver",
			Name:        "Savvy Saver",
			Description: "Achieve a positive net balance for the current month.",
			Unlocked: func(s Snapshot) bool {
				o := MonthOverview(s.Transactions, s.Now)
				return o.Income > o.Expense
			},
		},
		{
			ID:          "bill-buster",
			Name:        "Bill Buster",
			Description: "Add and track at least 5 bills.",
			Unlocked: func(s Snapshot) bool {
				return len(s.Bills) >= 5
			},
		},
		{
			ID:          "category-king",
			Name:        "Category King",
			Description: "Use all available spending categories.",
			Unlocked: func(s Snapshot) bool {
				used := make(map[domain.Category]bool)
				for _, t := range s.Transactions {
					used[t.Category] = true
				}
				for _, c := range domain.ExpenseCategories() {
					if !used[c] {
						return false
					}
				}
				return true
			},
		},
		{
			ID:          "receipt-scanner",
			Name:        "Receipt Scanner",
			Description: "Scan your first receipt.",
			Unlocked: func(s Snapshot) bool {
				for _, t := range s.Transactions {
					if t.Source == domain.SourceScan {
						return true
					}
				}
				return false
			},
		},
	}
}

// EvaluateAchievements runs every predicate over the snapshot, in order.
func EvaluateAchievements(s Snapshot) []EvaluatedAchievement {
	all := Achievements()
	out := make([]EvaluatedAchievement, 0, len(all))
	for _, a := range all {
		out = append(out, EvaluatedAchievement{Achievement: a, IsUnlocked: a.Unlocked(s)})
	}
	return out
}
