// Package metrics computes every derived value in the system. All
// functions are pure: snapshot in, value out, no hidden state. Callers
// recompute whenever a snapshot changes; nothing here is ever persisted.
//
// Different collections may update at different times, so no function
// assumes transactions, budgets and bills are mutually consistent.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wealthwise/wealthwise/internal/domain"
)

// Severity ranks how urgently a derived status needs attention.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// Loadable is anything that can report it has not delivered data yet;
// bindings satisfy it.
type Loadable interface {
	Loading() bool
}

// Ready reports whether every input snapshot has been delivered. Derived
// metrics must not be computed over partial data: a half-loaded snapshot
// set would flash a false zero state.
func Ready(inputs ...Loadable) bool {
	for _, in := range inputs {
		if in.Loading() {
			return false
		}
	}
	return true
}

// MonthlySpendByCategory sums expense amounts by category for the calendar
// month containing now.
func MonthlySpendByCategory(transactions []domain.Transaction, now time.Time) map[domain.Category]float64 {
	spend := make(map[domain.Category]float64)
	for _, t := range transactions {
		if t.Type != domain.TypeExpense {
			continue
		}
		if !inMonth(t.Date, now) {
			continue
		}
		spend[t.Category] += t.Amount
	}
	return spend
}

// BudgetStatus is one budget's position against the current month's spend.
type BudgetStatus struct {
	Budget    domain.Budget
	Spent     float64
	Remaining float64
	Progress  float64 // 0..100, clamped
	Severity  Severity
}

// EvaluateBudget computes spend, remainder and tier for one budget.
// Progress above 90 is critical, above 75 a warning.
func EvaluateBudget(b domain.Budget, transactions []domain.Transaction, now time.Time) BudgetStatus {
	spent := MonthlySpendByCategory(transactions, now)[b.Category]

	var progress float64
	if b.Total > 0 {
		progress = spent / b.Total * 100
		if progress > 100 {
			progress = 100
		}
	}

	severity := SeverityNone
	switch {
	case progress > 90:
		severity = SeverityCritical
	case progress > 75:
		severity = SeverityWarning
	}

	return BudgetStatus{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Total - spent,
		Progress:  progress,
		Severity:  severity,
	}
}

// EvaluateBudgets maps EvaluateBudget over a snapshot, preserving order.
func EvaluateBudgets(budgets []domain.Budget, transactions []domain.Transaction, now time.Time) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, EvaluateBudget(b, transactions, now))
	}
	return out
}

// DueStatus is the display state of one bill.
type DueStatus struct {
	Label    string
	Severity Severity
}

// BillDueStatus classifies a bill by whole-day distance between its due
// date and today at local midnight.
func BillDueStatus(b domain.Bill, now time.Time) DueStatus {
	if b.IsPaid {
		return DueStatus{Label: "Paid", Severity: SeverityNone}
	}

	days := b.DueDate.DaysSince(civil.DateOf(now))
	switch {
	case days < 0:
		return DueStatus{Label: fmt.Sprintf("Overdue by %d days", -days), Severity: SeverityCritical}
	case days == 0:
		return DueStatus{Label: "Due today", Severity: SeverityCritical}
	case days <= 3:
		return DueStatus{Label: fmt.Sprintf("Due in %d days", days), Severity: SeverityWarning}
	default:
		return DueStatus{Label: "Due on " + b.DueDate.In(time.Local).Format("2 Jan"), Severity: SeverityInfo}
	}
}

// UpcomingBills is the dashboard digest: unpaid bills due today or later,
// soonest first, capped at three.
func UpcomingBills(bills []domain.Bill, now time.Time) []domain.Bill {
	today := civil.DateOf(now)
	upcoming := make([]domain.Bill, 0, len(bills))
	for _, b := range bills {
		if b.IsPaid {
			continue
		}
		if b.DueDate.DaysSince(today) < 0 {
			continue
		}
		upcoming = append(upcoming, b)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(upcoming[j].DueDate)
	})
	if len(upcoming) > 3 {
		upcoming = upcoming[:3]
	}
	return upcoming
}

// GoalProgress is the goal's completion percentage, clamped at 100 even
// when contributions overshoot the target.
func GoalProgress(g domain.Goal) float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	progress := g.CurrentAmount / g.TargetAmount * 100
	if progress > 100 {
		progress = 100
	}
	return progress
}

// GoalComplete reports whether the goal reached its target. A complete
// goal is a terminal display state: further contributions are disabled but
// the entity is not deleted.
func GoalComplete(g domain.Goal) bool {
	return GoalProgress(g) >= 100
}

// Overview aggregates the current month's totals.
type Overview struct {
	Income  float64
	Expense float64
	Net     float64
}

// MonthOverview sums income and expense for the calendar month containing
// now.
func MonthOverview(transactions []domain.Transaction, now time.Time) Overview {
	var o Overview
	for _, t := range transactions {
		if !inMonth(t.Date, now) {
			continue
		}
		switch t.Type {
		case domain.TypeIncome:
			o.Income += t.Amount
		case domain.TypeExpense:
			o.Expense += t.Amount
		}
	}
	o.Net = o.Income - o.Expense
	return o
}

func inMonth(d civil.Date, now time.Time) bool {
	return d.Year == now.Year() && d.Month == now.Month()
}
