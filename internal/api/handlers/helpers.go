// Package handlers exposes the application over HTTP. Reads are served
// from live bindings held per authenticated user, so the subscription
// layer, not ad-hoc queries, feeds every response.
package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/binding"
	"github.com/wealthwise/wealthwise/internal/domain"
	"github.com/wealthwise/wealthwise/internal/gateway"
	"github.com/wealthwise/wealthwise/internal/store"
)

// UserBindings is the live snapshot set for one authenticated user.
type UserBindings struct {
	Transactions *binding.Collection
	Budgets      *binding.Collection
	Bills        *binding.Collection
	Goals        *binding.Collection
	Profile      *binding.Doc

	log zerolog.Logger
}

func newUserBindings(st store.Store, log zerolog.Logger, uid string) *UserBindings {
	ub := &UserBindings{
		Transactions: binding.NewCollection(st, log, nil),
		Budgets:      binding.NewCollection(st, log, nil),
		Bills:        binding.NewCollection(st, log, nil),
		Goals:        binding.NewCollection(st, log, nil),
		Profile:      binding.NewDoc(st, log, nil),
		log:          log,
	}
	ub.Transactions.Bind(store.CollectionPath(uid, store.KindTransactions))
	ub.Budgets.Bind(store.CollectionPath(uid, store.KindBudgets))
	ub.Bills.Bind(store.CollectionPath(uid, store.KindBills))
	ub.Goals.Bind(store.CollectionPath(uid, store.KindGoals))
	ub.Profile.Bind(store.ProfilePath(uid))
	return ub
}

func (ub *UserBindings) close() {
	ub.Transactions.Close()
	ub.Budgets.Close()
	ub.Bills.Close()
	ub.Goals.Close()
	ub.Profile.Close()
}

// TransactionList decodes the current transactions snapshot. Documents
// that fail to decode are skipped and logged, never fatal to the read.
func (ub *UserBindings) TransactionList() ([]domain.Transaction, binding.State, error) {
	docs, state, err := ub.Transactions.Snapshot()
	out := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		t, derr := domain.TransactionFromFields(d.ID, d.Fields)
		if derr != nil {
			ub.log.Warn().Err(derr).Str("doc_id", d.ID).Msg("Skipping malformed transaction")
			continue
		}
		out = append(out, t)
	}
	return out, state, err
}

// BudgetList decodes the current budgets snapshot.
func (ub *UserBindings) BudgetList() ([]domain.Budget, binding.State, error) {
	docs, state, err := ub.Budgets.Snapshot()
	out := make([]domain.Budget, 0, len(docs))
	for _, d := range docs {
		b, derr := domain.BudgetFromFields(d.ID, d.Fields)
		if derr != nil {
			ub.log.Warn().Err(derr).Str("doc_id", d.ID).Msg("Skipping malformed budget")
			continue
		}
		out = append(out, b)
	}
	return out, state, err
}

// BillList decodes the current bills snapshot.
func (ub *UserBindings) BillList() ([]domain.Bill, binding.State, error) {
	docs, state, err := ub.Bills.Snapshot()
	out := make([]domain.Bill, 0, len(docs))
	for _, d := range docs {
		b, derr := domain.BillFromFields(d.ID, d.Fields)
		if derr != nil {
			ub.log.Warn().Err(derr).Str("doc_id", d.ID).Msg("Skipping malformed bill")
			continue
		}
		out = append(out, b)
	}
	return out, state, err
}

// GoalList decodes the current goals snapshot.
func (ub *UserBindings) GoalList() ([]domain.Goal, binding.State, error) {
	docs, state, err := ub.Goals.Snapshot()
	out := make([]domain.Goal, 0, len(docs))
	for _, d := range docs {
		g, derr := domain.GoalFromFields(d.ID, d.Fields)
		if derr != nil {
			ub.log.Warn().Err(derr).Str("doc_id", d.ID).Msg("Skipping malformed goal")
			continue
		}
		out = append(out, g)
	}
	return out, state, err
}

// Registry lazily creates and caches the binding set per user.
type Registry struct {
	st  store.Store
	log zerolog.Logger

	mu    sync.Mutex
	users map[string]*UserBindings
}

// NewRegistry creates an empty registry over the store.
func NewRegistry(st store.Store, log zerolog.Logger) *Registry {
	return &Registry{st: st, log: log, users: make(map[string]*UserBindings)}
}

// For returns the binding set for a user, creating and binding it on first
// use.
func (r *Registry) For(uid string) *UserBindings {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ub, ok := r.users[uid]; ok {
		return ub
	}
	ub := newUserBindings(r.st, r.log, uid)
	r.users[uid] = ub
	return ub
}

// Close releases every binding in the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid, ub := range r.users {
		ub.close()
		delete(r.users, uid)
	}
}

// requireIdentity pulls the authenticated identity from the request,
// writing a 401 if Auth middleware did not run or rejected the request.
func requireIdentity(w http.ResponseWriter, r *http.Request) (uid string, ok bool) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Not signed in")
		return "", false
	}
	return id.UID, true
}

// writeMutationError maps gateway failures onto HTTP statuses.
func writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, gateway.ErrInvalid) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteError(w, http.StatusInternalServerError, "Mutation failed")
}

// writeBindingState turns a non-ready binding state into a response.
// Loading maps to 503 so clients retry rather than render a false zero
// state; a sticky binding error maps to 502 with the last good data
// withheld.
func writeBindingState(w http.ResponseWriter, state binding.State, err error) (handled bool) {
	switch state {
	case binding.StateLoading:
		middleware.WriteError(w, http.StatusServiceUnavailable, "Data not yet available")
		return true
	case binding.StateError:
		middleware.WriteError(w, http.StatusBadGateway, "Subscription error: "+err.Error())
		return true
	default:
		return false
	}
}
