package metrics

import (
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wealthwise/wealthwise/internal/domain"
)

var now = time.Date(2026, time.August, 15, 12, 0, 0, 0, time.Local)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func expense(name string, amount float64, cat domain.Category, d civil.Date) domain.Transaction {
	return domain.Transaction{Name: name, Amount: amount, Category: cat, Type: domain.TypeExpense, Date: d}
}

func income(name string, amount float64, d civil.Date) domain.Transaction {
	return domain.Transaction{Name: name, Amount: amount, Category: domain.CategoryIncome, Type: domain.TypeIncome, Date: d}
}

func TestMonthlySpendByCategory(t *testing.T) {
	transactions := []domain.Transaction{
		expense("groceries", 50, domain.CategoryFood, date(2026, time.August, 3)),
		expense("restaurant", 30, domain.CategoryFood, date(2026, time.August, 20)),
		expense("flight", 400, domain.CategoryTravel, date(2026, time.July, 30)), // previous month
		income("salary", 3000, date(2026, time.August, 1)),                       // income excluded
	}

	got := MonthlySpendByCategory(transactions, now)
	want := map[domain.Category]float64{domain.CategoryFood: 80}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spend = %v, want %v", got, want)
	}
}

func TestEvaluateBudget(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		spent        float64
		wantProgress float64
		wantSeverity Severity
	}{
		{"untouched", 100, 0, 0, SeverityNone},
		{"exactly 75", 100, 75, 75, SeverityNone},
		{"just past warning", 100, 76, 76, SeverityWarning},
		{"exactly 90", 100, 90, 90, SeverityWarning},
		{"just past critical", 100, 91, 91, SeverityCritical},
		{"overspent clamps", 100, 250, 100, SeverityCritical},
		{"zero total", 0, 50, 0, SeverityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := domain.Budget{Category: domain.CategoryFood, Total: tt.total}
			var transactions []domain.Transaction
			if tt.spent > 0 {
				transactions = append(transactions, expense("x", tt.spent, domain.CategoryFood, date(2026, time.August, 10)))
			}
			got := EvaluateBudget(b, transactions, now)
			if got.Progress != tt.wantProgress {
				t.Errorf("progress = %v, want %v", got.Progress, tt.wantProgress)
			}
			if got.Severity != tt.wantSeverity {
				t.Errorf("severity = %v, want %v", got.Severity, tt.wantSeverity)
			}
			if got.Remaining != tt.total-tt.spent {
				t.Errorf("remaining = %v", got.Remaining)
			}
		})
	}
}

func TestEvaluateBudgetIsIdempotent(t *testing.T) {
	b := domain.Budget{ID: "b1", Category: domain.CategoryTravel, Total: 500}
	transactions := []domain.Transaction{
		expense("train", 120, domain.CategoryTravel, date(2026, time.August, 2)),
		expense("hotel", 200, domain.CategoryTravel, date(2026, time.August, 5)),
	}

	first := EvaluateBudget(b, transactions, now)
	second := EvaluateBudget(b, transactions, now)
	if first != second {
		t.Errorf("re-evaluation over the same snapshot diverged: %+v vs %+v", first, second)
	}
}

func TestBillDueStatus(t *testing.T) {
	today := civil.DateOf(now)

	tests := []struct {
		name         string
		bill         domain.Bill
		wantLabel    string
		wantSeverity Severity
	}{
		{"paid wins", domain.Bill{IsPaid: true, DueDate: today.AddDays(-30)}, "Paid", SeverityNone},
		{"overdue one day", domain.Bill{DueDate: today.AddDays(-1)}, "Overdue by 1 days", SeverityCritical},
		{"overdue many", domain.Bill{DueDate: today.AddDays(-14)}, "Overdue by 14 days", SeverityCritical},
		{"due today", domain.Bill{DueDate: today}, "Due today", SeverityCritical},
		{"due tomorrow", domain.Bill{DueDate: today.AddDays(1)}, "Due in 1 days", SeverityWarning},
		{"due in three", domain.Bill{DueDate: today.AddDays(3)}, "Due in 3 days", SeverityWarning},
		{"due in four", domain.Bill{DueDate: today.AddDays(4)}, "Due on 19 Aug", SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillDueStatus(tt.bill, now)
			if got.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Severity != tt.wantSeverity {
				t.Errorf("severity = %v, want %v", got.Severity, tt.wantSeverity)
			}
		})
	}
}

func TestUpcomingBills(t *testing.T) {
	today := civil.DateOf(now)
	bills := []domain.Bill{
		{ID: "paid", IsPaid: true, DueDate: today.AddDays(1)},
		{ID: "past", DueDate: today.AddDays(-2)},
		{ID: "d5", DueDate: today.AddDays(5)},
		{ID: "d0", DueDate: today},
		{ID: "d9", DueDate: today.AddDays(9)},
		{ID: "d2", DueDate: today.AddDays(2)},
	}

	got := UpcomingBills(bills, now)
	wantIDs := []string{"d0", "d2", "d5"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d bills, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("upcoming[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name string
		goal domain.Goal
		want float64
	}{
		{"halfway", domain.Goal{TargetAmount: 1000, CurrentAmount: 500}, 50},
		{"complete", domain.Goal{TargetAmount: 1000, CurrentAmount: 1000}, 100},
		{"overshoot clamps", domain.Goal{TargetAmount: 1000, CurrentAmount: 1500}, 100},
		{"zero target", domain.Goal{TargetAmount: 0, CurrentAmount: 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GoalProgress(tt.goal); got != tt.want {
				t.Errorf("progress = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoalComplete(t *testing.T) {
	if GoalComplete(domain.Goal{TargetAmount: 1000, CurrentAmount: 999}) {
		t.Error("999/1000 must not be complete")
	}
	if !GoalComplete(domain.Goal{TargetAmount: 1000, CurrentAmount: 1500}) {
		t.Error("overshoot must still be complete")
	}
}

func TestMonthOverview(t *testing.T) {
	transactions := []domain.Transaction{
		income("salary", 3000, date(2026, time.August, 1)),
		expense("rent", 1200, domain.CategoryBills, date(2026, time.August, 2)),
		expense("old", 999, domain.CategoryFood, date(2026, time.July, 2)),
	}

	got := MonthOverview(transactions, now)
	if got.Income != 3000 || got.Expense != 1200 || got.Net != 1800 {
		t.Errorf("overview = %+v", got)
	}
}

type loadable bool

func (l loadable) Loading() bool { return bool(l) }

func TestReady(t *testing.T) {
	if !Ready(loadable(false), loadable(false)) {
		t.Error("all delivered must be ready")
	}
	if Ready(loadable(false), loadable(true)) {
		t.Error("any loading input must block readiness")
	}
	if !Ready() {
		t.Error("no inputs is trivially ready")
	}
}
