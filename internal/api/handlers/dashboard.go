package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/metrics"
)

// DashboardHandler serves the aggregated dashboard digest.
type DashboardHandler struct {
	registry *Registry
	log      zerolog.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(registry *Registry, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{registry: registry, log: log}
}

// Get handles GET /api/dashboard. If any input snapshot is still loading
// the whole digest reports unavailable: computing over partial data would
// flash a false zero state.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	ub := h.registry.For(uid)

	if !metrics.Ready(ub.Transactions, ub.Bills) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Data not yet available")
		return
	}

	transactions, state, err := ub.TransactionList()
	if writeBindingState(w, state, err) {
		return
	}
	bills, state, err := ub.BillList()
	if writeBindingState(w, state, err) {
		return
	}

	now := time.Now()
	overview := metrics.MonthOverview(transactions, now)

	spend := metrics.MonthlySpendByCategory(transactions, now)
	spendOut := make(map[string]float64, len(spend))
	for cat, amount := range spend {
		spendOut[string(cat)] = amount
	}

	upcoming := metrics.UpcomingBills(bills, now)
	upcomingOut := make([]billJSON, 0, len(upcoming))
	for _, b := range upcoming {
		upcomingOut = append(upcomingOut, toBillJSON(b, now))
	}

	recent := transactions
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	recentOut := make([]transactionJSON, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		recentOut = append(recentOut, toTransactionJSON(recent[i]))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"overview": map[string]float64{
			"income":  overview.Income,
			"expense": overview.Expense,
			"net":     overview.Net,
		},
		"spendByCategory":    spendOut,
		"upcomingBills":      upcomingOut,
		"recentTransactions": recentOut,
	})
}

// AchievementsHandler serves achievement unlock states.
type AchievementsHandler struct {
	registry *Registry
	log      zerolog.Logger
}

// NewAchievementsHandler creates an achievements handler.
func NewAchievementsHandler(registry *Registry, log zerolog.Logger) *AchievementsHandler {
	return &AchievementsHandler{registry: registry, log: log}
}

// Get handles GET /api/achievements. Unlocks are derived fresh from the
// current snapshots on every request.
func (h *AchievementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	ub := h.registry.For(uid)

	if !metrics.Ready(ub.Transactions, ub.Budgets, ub.Bills) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Data not yet available")
		return
	}

	transactions, state, err := ub.TransactionList()
	if writeBindingState(w, state, err) {
		return
	}
	budgets, state, err := ub.BudgetList()
	if writeBindingState(w, state, err) {
		return
	}
	bills, state, err := ub.BillList()
	if writeBindingState(w, state, err) {
		return
	}

	evaluated := metrics.EvaluateAchievements(metrics.Snapshot{
		Transactions: transactions,
		Budgets:      budgets,
		Bills:        bills,
		Now:          time.Now(),
	})

	type achievementJSON struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Unlocked    bool   `json:"unlocked"`
	}
	out := make([]achievementJSON, 0, len(evaluated))
	unlocked := 0
	for _, a := range evaluated {
		if a.IsUnlocked {
			unlocked++
		}
		out = append(out, achievementJSON{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Unlocked:    a.IsUnlocked,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"achievements": out,
		"unlocked":     unlocked,
		"total":        len(out),
	})
}
