package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newProvider() *MemoryProvider {
	return NewMemoryProvider("test-secret", time.Hour)
}

func TestCreateAccountAndSignIn(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	created, err := p.CreateAccount(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UID == "" || created.Email != "ada@example.com" {
		t.Errorf("identity = %+v", created)
	}

	if _, err := p.CreateAccount(ctx, "ada@example.com", "other"); !errors.Is(err, ErrAccountExists) {
		t.Errorf("duplicate: err = %v, want ErrAccountExists", err)
	}

	signedIn, err := p.SignIn(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if signedIn.UID != created.UID {
		t.Errorf("sign-in UID %s != created UID %s", signedIn.UID, created.UID)
	}

	if _, err := p.SignIn(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestWatchNotifications(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	var seen []*Identity
	unwatch := p.Watch(func(id *Identity) { seen = append(seen, id) })
	defer unwatch()

	// Watch fires synchronously with the current (signed out) state.
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("initial notification = %+v", seen)
	}

	id, err := p.CreateAccount(ctx, "ada@example.com", "pw123456")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(seen) != 2 || seen[1] == nil || seen[1].UID != id.UID {
		t.Fatalf("after create: %+v", seen)
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if len(seen) != 3 || seen[2] != nil {
		t.Fatalf("after sign out: %+v", seen)
	}
	if p.Current() != nil {
		t.Error("current identity should be nil after sign out")
	}

	unwatch()
	if _, err := p.SignIn(ctx, "ada@example.com", "pw123456"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if len(seen) != 3 {
		t.Error("released watcher still notified")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	p := newProvider()
	id := &Identity{UID: "u1", Email: "ada@example.com"}

	token, err := p.IssueToken(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := p.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UID != "u1" || got.Email != "ada@example.com" {
		t.Errorf("verified identity = %+v", got)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	p := newProvider()
	token, err := p.IssueToken(&Identity{UID: "u1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := p.VerifyToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token: err = %v, want ErrInvalidToken", err)
	}
	if _, err := p.VerifyToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}

	// A token signed with a different secret must not verify.
	other := NewMemoryProvider("other-secret", time.Hour)
	if _, err := other.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("cross-secret token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	p := NewMemoryProvider("test-secret", -time.Minute)
	token, err := p.IssueToken(&Identity{UID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := p.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}
