package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/domain"
	"github.com/wealthwise/wealthwise/internal/gateway"
	"github.com/wealthwise/wealthwise/internal/metrics"
)

// TransactionsHandler serves the transactions collection.
type TransactionsHandler struct {
	registry *Registry
	gw       *gateway.Gateway
	log      zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler.
func NewTransactionsHandler(registry *Registry, gw *gateway.Gateway, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{registry: registry, gw: gw, log: log}
}

type transactionJSON struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Source   string  `json:"source,omitempty"`
}

func toTransactionJSON(t domain.Transaction) transactionJSON {
	return transactionJSON{
		ID:       t.ID,
		Date:     t.Date.String(),
		Name:     t.Name,
		Amount:   t.Amount,
		Category: string(t.Category),
		Type:     string(t.Type),
		Source:   string(t.Source),
	}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	transactions, state, err := h.registry.For(uid).TransactionList()
	if writeBindingState(w, state, err) {
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionJSON(t))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"count":        len(out),
	})
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req transactionJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	t := domain.Transaction{
		Date:     date,
		Name:     req.Name,
		Amount:   req.Amount,
		Category: domain.Category(req.Category),
		Type:     domain.TransactionType(req.Type),
		Source:   domain.TransactionSource(req.Source),
	}
	if t.Source == "" {
		t.Source = domain.SourceManual
	}

	id, err := h.gw.AddTransaction(r.Context(), uid, t)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.gw.DeleteTransaction(r.Context(), uid, id); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BudgetsHandler serves the budgets collection with derived status.
type BudgetsHandler struct {
	registry *Registry
	gw       *gateway.Gateway
	log      zerolog.Logger
}

// NewBudgetsHandler creates a budgets handler.
func NewBudgetsHandler(registry *Registry, gw *gateway.Gateway, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{registry: registry, gw: gw, log: log}
}

type budgetJSON struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Total     float64 `json:"total"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	Progress  float64 `json:"progress"`
	Severity  string  `json:"severity"`
}

// List handles GET /api/budgets. Each budget carries its derived status
// against the current month's spend; budgets and transactions may have
// been delivered at different times, which is fine.
func (h *BudgetsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	ub := h.registry.For(uid)

	budgets, state, err := ub.BudgetList()
	if writeBindingState(w, state, err) {
		return
	}
	transactions, state, err := ub.TransactionList()
	if writeBindingState(w, state, err) {
		return
	}

	statuses := metrics.EvaluateBudgets(budgets, transactions, time.Now())
	out := make([]budgetJSON, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, budgetJSON{
			ID:        s.Budget.ID,
			Category:  string(s.Budget.Category),
			Total:     s.Budget.Total,
			Spent:     s.Spent,
			Remaining: s.Remaining,
			Progress:  s.Progress,
			Severity:  s.Severity.String(),
		})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"budgets": out,
		"count":   len(out),
	})
}

// Create handles POST /api/budgets.
func (h *BudgetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.gw.AddBudget(r.Context(), uid, domain.Budget{
		Category: domain.Category(req.Category),
		Total:    req.Total,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Delete handles DELETE /api/budgets/{id}.
func (h *BudgetsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.gw.DeleteBudget(r.Context(), uid, id); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BillsHandler serves the bills collection with due status.
type BillsHandler struct {
	registry *Registry
	gw       *gateway.Gateway
	log      zerolog.Logger
}

// NewBillsHandler creates a bills handler.
func NewBillsHandler(registry *Registry, gw *gateway.Gateway, log zerolog.Logger) *BillsHandler {
	return &BillsHandler{registry: registry, gw: gw, log: log}
}

type billJSON struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate"`
	IsRecurring bool    `json:"isRecurring"`
	IsPaid      bool    `json:"isPaid"`
	Status      string  `json:"status"`
	Severity    string  `json:"severity"`
}

func toBillJSON(b domain.Bill, now time.Time) billJSON {
	status := metrics.BillDueStatus(b, now)
	return billJSON{
		ID:          b.ID,
		Name:        b.Name,
		Amount:      b.Amount,
		DueDate:     b.DueDate.String(),
		IsRecurring: b.IsRecurring,
		IsPaid:      b.IsPaid,
		Status:      status.Label,
		Severity:    status.Severity.String(),
	}
}

// List handles GET /api/bills: unpaid bills first, then ascending due
// date.
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bills, state, err := h.registry.For(uid).BillList()
	if writeBindingState(w, state, err) {
		return
	}

	sorted := make([]domain.Bill, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsPaid != sorted[j].IsPaid {
			return !sorted[i].IsPaid
		}
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})

	now := time.Now()
	out := make([]billJSON, 0, len(sorted))
	for _, b := range sorted {
		out = append(out, toBillJSON(b, now))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"bills": out,
		"count": len(out),
	})
}

// Create handles POST /api/bills.
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Amount      float64 `json:"amount"`
		DueDate     string  `json:"dueDate"`
		IsRecurring bool    `json:"isRecurring"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	due, err := civil.ParseDate(req.DueDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "dueDate must be YYYY-MM-DD")
		return
	}

	id, err := h.gw.AddBill(r.Context(), uid, domain.Bill{
		Name:        req.Name,
		Amount:      req.Amount,
		DueDate:     due,
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// TogglePaid handles POST /api/bills/{id}/toggle-paid. The current paid
// state comes from the live snapshot; the store push is how the caller
// sees the flip.
func (h *BillsHandler) TogglePaid(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bills, state, err := h.registry.For(uid).BillList()
	if writeBindingState(w, state, err) {
		return
	}

	for _, b := range bills {
		if b.ID == id {
			if err := h.gw.ToggleBillPaid(r.Context(), uid, id, b.IsPaid); err != nil {
				writeMutationError(w, err)
				return
			}
			middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
			return
		}
	}
	middleware.WriteError(w, http.StatusNotFound, "Bill not found")
}

// ResetPaid handles POST /api/bills/reset-paid.
func (h *BillsHandler) ResetPaid(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bills, state, err := h.registry.For(uid).BillList()
	if writeBindingState(w, state, err) {
		return
	}

	if err := h.gw.ResetPaidBills(r.Context(), uid, bills); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Delete handles DELETE /api/bills/{id}.
func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.gw.DeleteBill(r.Context(), uid, id); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GoalsHandler serves the goals collection with progress.
type GoalsHandler struct {
	registry *Registry
	gw       *gateway.Gateway
	log      zerolog.Logger
}

// NewGoalsHandler creates a goals handler.
func NewGoalsHandler(registry *Registry, gw *gateway.Gateway, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{registry: registry, gw: gw, log: log}
}

type goalJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetDate    string  `json:"targetDate,omitempty"`
	Progress      float64 `json:"progress"`
	Complete      bool    `json:"complete"`
}

// List handles GET /api/goals.
func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	goals, state, err := h.registry.For(uid).GoalList()
	if writeBindingState(w, state, err) {
		return
	}

	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		gj := goalJSON{
			ID:            g.ID,
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Progress:      metrics.GoalProgress(g),
			Complete:      metrics.GoalComplete(g),
		}
		if g.TargetDate != nil {
			gj.TargetDate = g.TargetDate.String()
		}
		out = append(out, gj)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"goals": out,
		"count": len(out),
	})
}

// Create handles POST /api/goals. CurrentAmount always starts at zero.
func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name         string  `json:"name"`
		TargetAmount float64 `json:"targetAmount"`
		TargetDate   string  `json:"targetDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal := domain.Goal{Name: req.Name, TargetAmount: req.TargetAmount}
	if req.TargetDate != "" {
		d, err := civil.ParseDate(req.TargetDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "targetDate must be YYYY-MM-DD")
			return
		}
		goal.TargetDate = &d
	}

	id, err := h.gw.AddGoal(r.Context(), uid, goal)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Contribute handles POST /api/goals/{id}/contribute. The write is a
// read-modify-write over the snapshot; concurrent contributions can lose
// updates, last writer wins.
func (h *GoalsHandler) Contribute(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goals, state, err := h.registry.For(uid).GoalList()
	if writeBindingState(w, state, err) {
		return
	}

	for _, g := range goals {
		if g.ID == id {
			if err := h.gw.ContributeToGoal(r.Context(), uid, g, req.Amount); err != nil {
				writeMutationError(w, err)
				return
			}
			middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "contributed"})
			return
		}
	}
	middleware.WriteError(w, http.StatusNotFound, "Goal not found")
}

// Delete handles DELETE /api/goals/{id}.
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.gw.DeleteGoal(r.Context(), uid, id); err != nil {
		writeMutationError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
