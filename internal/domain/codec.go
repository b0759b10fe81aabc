package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Store documents are flat field maps; these functions translate between
// the typed entities and that representation. Dates travel as "YYYY-MM-DD"
// strings, amounts as float64.

func (t Transaction) Fields() map[string]any {
	f := map[string]any{
		"date":     t.Date.String(),
		"name":     t.Name,
		"amount":   t.Amount,
		"category": string(t.Category),
		"type":     string(t.Type),
	}
	if t.Source != "" {
		f["source"] = string(t.Source)
	}
	return f
}

func (b Budget) Fields() map[string]any {
	return map[string]any{
		"category": string(b.Category),
		"total":    b.Total,
	}
}

func (b Bill) Fields() map[string]any {
	return map[string]any{
		"name":        b.Name,
		"amount":      b.Amount,
		"dueDate":     b.DueDate.String(),
		"isRecurring": b.IsRecurring,
		"isPaid":      b.IsPaid,
	}
}

func (g Goal) Fields() map[string]any {
	f := map[string]any{
		"name":          g.Name,
		"targetAmount":  g.TargetAmount,
		"currentAmount": g.CurrentAmount,
	}
	if g.TargetDate != nil {
		f["targetDate"] = g.TargetDate.String()
	}
	return f
}

func (p UserProfile) Fields() map[string]any {
	f := map[string]any{}
	if p.Name != "" {
		f["name"] = p.Name
	}
	if p.Email != "" {
		f["email"] = p.Email
	}
	if p.Avatar != "" {
		f["avatar"] = p.Avatar
	}
	return f
}

// TransactionFromFields decodes a store document into a Transaction.
func TransactionFromFields(id string, fields map[string]any) (Transaction, error) {
	date, err := dateField(fields, "date")
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	t := Transaction{
		ID:       id,
		Date:     date,
		Name:     stringField(fields, "name"),
		Amount:   floatField(fields, "amount"),
		Category: CoerceCategory(stringField(fields, "category")),
		Type:     TransactionType(stringField(fields, "type")),
		Source:   TransactionSource(stringField(fields, "source")),
	}
	return t, nil
}

// BudgetFromFields decodes a store document into a Budget.
func BudgetFromFields(id string, fields map[string]any) (Budget, error) {
	cat, ok := ParseCategory(stringField(fields, "category"))
	if !ok {
		return Budget{}, fmt.Errorf("budget %s: unknown category %q", id, stringField(fields, "category"))
	}
	return Budget{
		ID:       id,
		Category: cat,
		Total:    floatField(fields, "total"),
	}, nil
}

// BillFromFields decodes a store document into a Bill.
func BillFromFields(id string, fields map[string]any) (Bill, error) {
	due, err := dateField(fields, "dueDate")
	if err != nil {
		return Bill{}, fmt.Errorf("bill %s: %w", id, err)
	}
	return Bill{
		ID:          id,
		Name:        stringField(fields, "name"),
		Amount:      floatField(fields, "amount"),
		DueDate:     due,
		IsRecurring: boolField(fields, "isRecurring"),
		IsPaid:      boolField(fields, "isPaid"),
	}, nil
}

// GoalFromFields decodes a store document into a Goal.
func GoalFromFields(id string, fields map[string]any) (Goal, error) {
	g := Goal{
		ID:            id,
		Name:          stringField(fields, "name"),
		TargetAmount:  floatField(fields, "targetAmount"),
		CurrentAmount: floatField(fields, "currentAmount"),
	}
	if raw := stringField(fields, "targetDate"); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			return Goal{}, fmt.Errorf("goal %s: parse targetDate: %w", id, err)
		}
		g.TargetDate = &d
	}
	return g, nil
}

// ProfileFromFields decodes a store document into a UserProfile.
// Missing fields stay zero-valued; profile documents grow by merge.
func ProfileFromFields(fields map[string]any) UserProfile {
	return UserProfile{
		Name:   stringField(fields, "name"),
		Email:  stringField(fields, "email"),
		Avatar: stringField(fields, "avatar"),
	}
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func boolField(fields map[string]any, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

func dateField(fields map[string]any, key string) (civil.Date, error) {
	raw := stringField(fields, key)
	if raw == "" {
		return civil.Date{}, fmt.Errorf("missing %s", key)
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
