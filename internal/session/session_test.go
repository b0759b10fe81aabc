package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/identity"
	"github.com/wealthwise/wealthwise/internal/store/memory"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	st := memory.New()
	t.Cleanup(st.Close)
	provider := identity.NewMemoryProvider("test-secret", time.Hour)
	s := New(provider, st, zerolog.Nop(), nil)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

// waitFor polls until the condition holds; profile snapshots arrive
// asynchronously from the store's push stream.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestStartResolvesAnonymous(t *testing.T) {
	s := newSession(t)
	// The provider reports synchronously, so unknown is already resolved.
	if s.Status() != StatusAnonymous {
		t.Errorf("status = %v, want anonymous", s.Status())
	}
	if s.Identity() != nil {
		t.Error("identity should be nil while signed out")
	}
	if _, found := s.Profile(); found {
		t.Error("profile should not exist while signed out")
	}
}

func TestCreateAccountSeedsProfile(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	id, err := s.CreateAccount(ctx, "ada.lovelace@example.com", "pw123456")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if s.Status() != StatusAuthenticated {
		t.Fatalf("status = %v, want authenticated", s.Status())
	}
	if got := s.Identity(); got == nil || got.UID != id.UID {
		t.Fatalf("identity = %+v", got)
	}

	waitFor(t, func() bool {
		_, found := s.Profile()
		return found
	})

	profile, _ := s.Profile()
	if profile.Email != "ada.lovelace@example.com" {
		t.Errorf("email = %q", profile.Email)
	}
	// Display name defaults to the email local part.
	if profile.Name != "ada.lovelace" {
		t.Errorf("name = %q, want ada.lovelace", profile.Name)
	}
}

func TestSignInBindsProfile(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	if _, err := s.CreateAccount(ctx, "ada@example.com", "pw123456"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if s.Status() != StatusAnonymous {
		t.Fatalf("status after sign out = %v", s.Status())
	}
	if _, found := s.Profile(); found {
		t.Fatal("profile still bound after sign out")
	}

	if _, err := s.SignIn(ctx, "ada@example.com", "pw123456"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	waitFor(t, func() bool {
		profile, found := s.Profile()
		return found && profile.Email == "ada@example.com"
	})
}

func TestOnChangeFiresOnTransitions(t *testing.T) {
	st := memory.New()
	t.Cleanup(st.Close)
	provider := identity.NewMemoryProvider("test-secret", time.Hour)

	changes := make(chan struct{}, 16)
	s := New(provider, st, zerolog.Nop(), func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	s.Start()
	t.Cleanup(s.Stop)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification for the initial identity report")
	}
}
