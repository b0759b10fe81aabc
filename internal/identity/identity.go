// Package identity defines the authentication boundary. The session layer
// only sees the Provider interface; the in-memory implementation in this
// package backs local development and tests with bcrypt credentials and
// JWT session tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccountExists is returned when creating an account with an email
	// that is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is returned on a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// Identity is an authenticated principal.
type Identity struct {
	UID   string
	Email string
}

// Provider is the identity boundary. Watch delivers the current identity
// immediately and again on every transition; a nil identity means signed
// out.
type Provider interface {
	Watch(onChange func(*Identity)) (unwatch func())
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	Current() *Identity
}

// TokenIssuer mints and verifies bearer tokens for the HTTP surface.
type TokenIssuer interface {
	IssueToken(id *Identity) (string, error)
	VerifyToken(token string) (*Identity, error)
}

type account struct {
	uid  string
	hash []byte
}

// MemoryProvider is an in-process Provider and TokenIssuer.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration

	mu       sync.Mutex
	accounts map[string]account
	current  *Identity
	watchers map[int]func(*Identity)
	nextID   int
}

// NewMemoryProvider creates a provider signing tokens with the given
// secret.
func NewMemoryProvider(secret string, ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{
		secret:   []byte(secret),
		ttl:      ttl,
		accounts: make(map[string]account),
		watchers: make(map[int]func(*Identity)),
	}
}

// Watch implements Provider. The callback fires synchronously with the
// current identity so the caller leaves the unknown state immediately.
func (p *MemoryProvider) Watch(onChange func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = onChange
	current := p.current
	p.mu.Unlock()

	onChange(current)

	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}

// CreateAccount implements Provider. The new account becomes the current
// identity.
func (p *MemoryProvider) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, ErrAccountExists
	}
	id := &Identity{UID: uuid.New().String(), Email: email}
	p.accounts[email] = account{uid: id.UID, hash: hash}
	p.current = id
	watchers := p.watchersLocked()
	p.mu.Unlock()

	notify(watchers, id)
	return id, nil
}

// SignIn implements Provider.
func (p *MemoryProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	acct, exists := p.accounts[email]
	p.mu.Unlock()
	if !exists {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	id := &Identity{UID: acct.uid, Email: email}

	p.mu.Lock()
	p.current = id
	watchers := p.watchersLocked()
	p.mu.Unlock()

	notify(watchers, id)
	return id, nil
}

// SignOut implements Provider.
func (p *MemoryProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	watchers := p.watchersLocked()
	p.mu.Unlock()

	notify(watchers, nil)
	return nil
}

// Current implements Provider.
func (p *MemoryProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// IssueToken implements TokenIssuer using HS256.
func (p *MemoryProvider) IssueToken(id *Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.UID,
		"email": id.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken implements TokenIssuer.
func (p *MemoryProvider) VerifyToken(raw string) (*Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: sub, Email: email}, nil
}

func (p *MemoryProvider) watchersLocked() []func(*Identity) {
	out := make([]func(*Identity), 0, len(p.watchers))
	for _, w := range p.watchers {
		out = append(out, w)
	}
	return out
}

func notify(watchers []func(*Identity), id *Identity) {
	for _, w := range watchers {
		w(id)
	}
}
