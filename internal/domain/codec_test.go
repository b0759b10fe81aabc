package domain

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestTransactionFromFields(t *testing.T) {
	tx, err := TransactionFromFields("t1", map[string]any{
		"date":     "2026-08-15",
		"name":     "Coffee",
		"amount":   4.5,
		"category": "Food",
		"type":     "expense",
		"source":   "scan",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != "t1" || tx.Name != "Coffee" || tx.Amount != 4.5 {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if tx.Date != (civil.Date{Year: 2026, Month: 8, Day: 15}) {
		t.Errorf("date = %v", tx.Date)
	}
	if tx.Source != SourceScan {
		t.Errorf("source = %q, want scan", tx.Source)
	}
}

func TestTransactionFromFieldsMissingDate(t *testing.T) {
	_, err := TransactionFromFields("t1", map[string]any{"name": "Coffee"})
	if err == nil {
		t.Fatal("expected error for missing date")
	}
}

func TestTransactionFromFieldsCoercesCategory(t *testing.T) {
	tx, err := TransactionFromFields("t1", map[string]any{
		"date":     "2026-01-01",
		"name":     "Watch",
		"amount":   250.0,
		"category": "Luxury",
		"type":     "expense",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Category != CategoryShopping {
		t.Errorf("category = %q, want Shopping", tx.Category)
	}
}

func TestBudgetFromFieldsRejectsUnknownCategory(t *testing.T) {
	if _, err := BudgetFromFields("b1", map[string]any{"category": "Luxury", "total": 100.0}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestGoalFromFieldsOptionalTargetDate(t *testing.T) {
	g, err := GoalFromFields("g1", map[string]any{
		"name":          "Trip",
		"targetAmount":  1000.0,
		"currentAmount": 250.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TargetDate != nil {
		t.Errorf("expected nil target date, got %v", g.TargetDate)
	}

	g, err = GoalFromFields("g2", map[string]any{
		"name":         "Trip",
		"targetAmount": 1000.0,
		"targetDate":   "2027-06-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TargetDate == nil || g.TargetDate.String() != "2027-06-01" {
		t.Errorf("targetDate = %v", g.TargetDate)
	}
}

func TestProfileFieldsMergeSemantics(t *testing.T) {
	// Only set fields travel, so a merge write never clears the rest.
	f := UserProfile{Name: "ada"}.Fields()
	if _, ok := f["email"]; ok {
		t.Error("empty email must not be written")
	}
	if _, ok := f["avatar"]; ok {
		t.Error("empty avatar must not be written")
	}
	if f["name"] != "ada" {
		t.Errorf("name = %v", f["name"])
	}
}

func TestBillFieldsRoundTrip(t *testing.T) {
	in := Bill{
		ID:          "b1",
		Name:        "Rent",
		Amount:      1200,
		DueDate:     civil.Date{Year: 2026, Month: 9, Day: 1},
		IsRecurring: true,
		IsPaid:      false,
	}
	out, err := BillFromFields("b1", in.Fields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
