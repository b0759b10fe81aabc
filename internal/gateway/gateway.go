// Package gateway is the only path user intent takes to the store. Every
// operation is fire-and-await: success returns no snapshot, and callers
// observe the effect solely through the store's push notification. There
// is no optimistic local state to roll back on failure.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/domain"
	"github.com/wealthwise/wealthwise/internal/store"
)

// ErrInvalid marks a mutation rejected before reaching the store.
var ErrInvalid = errors.New("invalid input")

// Gateway issues create/update/delete operations against the store, one
// method per entity per verb.
type Gateway struct {
	st  store.Store
	log zerolog.Logger
}

// New creates a gateway over the given store.
func New(st store.Store, log zerolog.Logger) *Gateway {
	return &Gateway{st: st, log: log}
}

// AddTransaction creates a transaction under the user's namespace.
func (g *Gateway) AddTransaction(ctx context.Context, uid string, t domain.Transaction) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("%w: transaction name is required", ErrInvalid)
	}
	if t.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if _, ok := domain.ParseCategory(string(t.Category)); !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalid, t.Category)
	}
	if t.Type != domain.TypeIncome && t.Type != domain.TypeExpense {
		return "", fmt.Errorf("%w: type must be income or expense", ErrInvalid)
	}

	id, err := g.st.Create(ctx, store.CollectionPath(uid, store.KindTransactions), t.Fields())
	if err != nil {
		return "", fmt.Errorf("add transaction: %w", err)
	}
	g.log.Debug().Str("uid", uid).Str("transaction_id", id).Msg("Transaction created")
	return id, nil
}

// DeleteTransaction removes a transaction.
func (g *Gateway) DeleteTransaction(ctx context.Context, uid, id string) error {
	if err := g.st.Delete(ctx, store.DocPath(uid, store.KindTransactions, id)); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// AddBudget creates a budget. Budgets only make sense for expense
// categories; uniqueness per category is intended usage, not enforced.
func (g *Gateway) AddBudget(ctx context.Context, uid string, b domain.Budget) (string, error) {
	if b.Total <= 0 {
		return "", fmt.Errorf("%w: budget total must be positive", ErrInvalid)
	}
	expense := false
	for _, c := range domain.ExpenseCategories() {
		if c == b.Category {
			expense = true
			break
		}
	}
	if !expense {
		return "", fmt.Errorf("%w: budgets require an expense category, got %q", ErrInvalid, b.Category)
	}

	id, err := g.st.Create(ctx, store.CollectionPath(uid, store.KindBudgets), b.Fields())
	if err != nil {
		return "", fmt.Errorf("add budget: %w", err)
	}
	return id, nil
}

// DeleteBudget removes a budget.
func (g *Gateway) DeleteBudget(ctx context.Context, uid, id string) error {
	if err := g.st.Delete(ctx, store.DocPath(uid, store.KindBudgets, id)); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// AddBill creates a bill. IsPaid defaults to false.
func (g *Gateway) AddBill(ctx context.Context, uid string, b domain.Bill) (string, error) {
	if b.Name == "" {
		return "", fmt.Errorf("%w: bill name is required", ErrInvalid)
	}
	if b.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if !b.DueDate.IsValid() {
		return "", fmt.Errorf("%w: due date is required", ErrInvalid)
	}

	id, err := g.st.Create(ctx, store.CollectionPath(uid, store.KindBills), b.Fields())
	if err != nil {
		return "", fmt.Errorf("add bill: %w", err)
	}
	return id, nil
}

// ToggleBillPaid flips a bill's paid flag. isPaid changes only through
// explicit user action, so the caller supplies the state it saw.
func (g *Gateway) ToggleBillPaid(ctx context.Context, uid, id string, currentlyPaid bool) error {
	err := g.st.Update(ctx, store.DocPath(uid, store.KindBills, id), map[string]any{
		"isPaid": !currentlyPaid,
	})
	if err != nil {
		return fmt.Errorf("toggle bill paid: %w", err)
	}
	return nil
}

// DeleteBill removes a bill.
func (g *Gateway) DeleteBill(ctx context.Context, uid, id string) error {
	if err := g.st.Delete(ctx, store.DocPath(uid, store.KindBills, id)); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}

// ResetPaidBills marks every paid bill unpaid in one batch, typically at
// the start of a new billing cycle.
func (g *Gateway) ResetPaidBills(ctx context.Context, uid string, bills []domain.Bill) error {
	var ops []store.WriteOp
	for _, b := range bills {
		if !b.IsPaid {
			continue
		}
		ops = append(ops, store.WriteOp{
			Path:   store.DocPath(uid, store.KindBills, b.ID),
			Fields: map[string]any{"isPaid": false},
		})
	}
	if len(ops) == 0 {
		return nil
	}
	if err := g.st.BatchUpdate(ctx, ops); err != nil {
		return fmt.Errorf("reset paid bills: %w", err)
	}
	g.log.Debug().Str("uid", uid).Int("count", len(ops)).Msg("Paid bills reset")
	return nil
}

// AddGoal creates a goal. CurrentAmount always starts at zero regardless
// of what the caller set.
func (g *Gateway) AddGoal(ctx context.Context, uid string, goal domain.Goal) (string, error) {
	if goal.Name == "" {
		return "", fmt.Errorf("%w: goal name is required", ErrInvalid)
	}
	if goal.TargetAmount <= 0 {
		return "", fmt.Errorf("%w: target amount must be positive", ErrInvalid)
	}
	goal.CurrentAmount = 0

	id, err := g.st.Create(ctx, store.CollectionPath(uid, store.KindGoals), goal.Fields())
	if err != nil {
		return "", fmt.Errorf("add goal: %w", err)
	}
	return id, nil
}

// ContributeToGoal adds a contribution as a read-modify-write over the
// snapshot the caller is holding: the new currentAmount is computed here
// and written back whole, not incremented atomically. Concurrent
// contributions can lose updates; last writer wins.
func (g *Gateway) ContributeToGoal(ctx context.Context, uid string, goal domain.Goal, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: contribution must be positive", ErrInvalid)
	}
	if goal.CurrentAmount >= goal.TargetAmount {
		return fmt.Errorf("%w: goal already reached", ErrInvalid)
	}

	err := g.st.Update(ctx, store.DocPath(uid, store.KindGoals, goal.ID), map[string]any{
		"currentAmount": goal.CurrentAmount + amount,
	})
	if err != nil {
		return fmt.Errorf("contribute to goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a goal.
func (g *Gateway) DeleteGoal(ctx context.Context, uid, id string) error {
	if err := g.st.Delete(ctx, store.DocPath(uid, store.KindGoals, id)); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// SaveProfile merges partial profile fields into the user's profile
// document; absent fields are left untouched, never overwritten.
func (g *Gateway) SaveProfile(ctx context.Context, uid string, p domain.UserProfile) error {
	fields := p.Fields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if err := g.st.Update(ctx, store.ProfilePath(uid), fields); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SetAvatar merges a new avatar URL into the profile document.
func (g *Gateway) SetAvatar(ctx context.Context, uid, url string) error {
	if url == "" {
		return fmt.Errorf("%w: avatar URL is required", ErrInvalid)
	}
	if err := g.st.Update(ctx, store.ProfilePath(uid), map[string]any{"avatar": url}); err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return nil
}
