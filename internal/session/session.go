// Package session tracks the authenticated identity process-wide and keeps
// the matching profile document bound. While the identity is still unknown
// every dependent subscription stays idle; the profile document may lag
// account creation, so a missing document reads as "none", never an error.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/binding"
	"github.com/wealthwise/wealthwise/internal/domain"
	"github.com/wealthwise/wealthwise/internal/identity"
	"github.com/wealthwise/wealthwise/internal/store"
)

// Status is the identity resolution state.
type Status int

const (
	// StatusUnknown means the provider has not reported yet.
	StatusUnknown Status = iota
	// StatusAuthenticated means an identity is signed in.
	StatusAuthenticated
	// StatusAnonymous means the provider reported "definitely signed out".
	StatusAnonymous
)

// Session is the process-wide session provider. Create one, call Start,
// and release it with Stop.
type Session struct {
	provider identity.Provider
	st       store.Store
	log      zerolog.Logger

	profile *binding.Doc

	mu       sync.Mutex
	status   Status
	identity *identity.Identity
	unwatch  func()

	onChange func()
}

// New creates a session provider. onChange, if not nil, fires on identity
// transitions and on profile snapshot changes.
func New(provider identity.Provider, st store.Store, log zerolog.Logger, onChange func()) *Session {
	s := &Session{
		provider: provider,
		st:       st,
		log:      log,
		status:   StatusUnknown,
	}
	s.profile = binding.NewDoc(st, log, onChange)
	s.onChange = onChange
	return s
}

// Start subscribes to identity changes. The provider notifies synchronously
// with the current identity, so the session leaves StatusUnknown before
// Start returns when the provider already knows the answer.
func (s *Session) Start() {
	unwatch := s.provider.Watch(s.handleIdentity)
	s.mu.Lock()
	s.unwatch = unwatch
	s.mu.Unlock()
}

// Stop releases the identity watch and the profile subscription.
func (s *Session) Stop() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
	s.profile.Close()
}

func (s *Session) handleIdentity(id *identity.Identity) {
	s.mu.Lock()
	s.identity = id
	if id != nil {
		s.status = StatusAuthenticated
	} else {
		s.status = StatusAnonymous
	}
	s.mu.Unlock()

	if id != nil {
		s.profile.Bind(store.ProfilePath(id.UID))
	} else {
		s.profile.Close()
	}

	if s.onChange != nil {
		s.onChange()
	}
}

// Status returns the identity resolution state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Identity returns the current identity, or nil while unknown or signed
// out.
func (s *Session) Identity() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Profile returns the bound profile document, if it exists yet.
func (s *Session) Profile() (domain.UserProfile, bool) {
	doc, found, _, _ := s.profile.Snapshot()
	if !found {
		return domain.UserProfile{}, false
	}
	return domain.ProfileFromFields(doc.Fields), true
}

// ProfileLoading reports whether the profile document is still being
// fetched for an authenticated identity.
func (s *Session) ProfileLoading() bool {
	return s.profile.Loading()
}

// SignIn authenticates an existing account.
func (s *Session) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return s.provider.SignIn(ctx, email, password)
}

// CreateAccount registers a new account and synchronously creates its
// profile document so dependent reads find it on first load. The profile
// name defaults to the email local part.
func (s *Session) CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error) {
	id, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}

	name := email
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	fields := map[string]any{
		"email":     email,
		"name":      name,
		"createdAt": time.Now().Format(time.RFC3339),
	}
	if err := s.st.Update(ctx, store.ProfilePath(id.UID), fields); err != nil {
		return nil, fmt.Errorf("create profile document: %w", err)
	}
	return id, nil
}

// SignOut ends the current session.
func (s *Session) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}
