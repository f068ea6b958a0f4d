package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultIssuer   = "hirehub"
	defaultTokenTTL = 7 * 24 * time.Hour
)

// Authority authenticates users and issues and validates their credentials.
type Authority struct {
	accounts AccountStore
	hasher   PasswordHasher
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time

	// Verified when no account matches so both failure paths cost the same.
	dummyHash string
}

// Option configures Authority behavior.
type Option func(*Authority) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) Option {
	return func(a *Authority) error {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			a.issuer = issuer
		}
		return nil
	}
}

// WithTTL configures the credential lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) error {
		if ttl < 0 {
			return fmt.Errorf("auth: negative token ttl %s", ttl)
		}
		if ttl > 0 {
			a.ttl = ttl
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(a *Authority) error {
		if fn != nil {
			a.now = fn
		}
		return nil
	}
}

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h PasswordHasher) Option {
	return func(a *Authority) error {
		if h != nil {
			a.hasher = h
		}
		return nil
	}
}

// NewAuthority constructs an Authority signing with secret.
func NewAuthority(accounts AccountStore, secret string, opts ...Option) (*Authority, error) {
	if accounts == nil {
		return nil, errors.New("auth: account store is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	a := &Authority{
		accounts: accounts,
		secret:   []byte(secret),
		issuer:   defaultIssuer,
		ttl:      defaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.hasher == nil {
		h, err := NewHasher(AlgoBcrypt, 0)
		if err != nil {
			return nil, err
		}
		a.hasher = h
	}
	dummy, err := a.hasher.Hash("hirehub-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	a.dummyHash = dummy
	return a, nil
}

// TTL reports the lifetime of issued credentials.
func (a *Authority) TTL() time.Duration { return a.ttl }

// Authenticate verifies email and password and returns a fresh session.
// Accounts sharing the email are tried oldest first; the first match wins.
func (a *Authority) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	accounts, err := a.accounts.AccountsByEmail(ctx, email)
	if err != nil {
		return Session{}, fmt.Errorf("auth: lookup account: %w", err)
	}
	if len(accounts) == 0 {
		_, _ = a.hasher.Verify(password, a.dummyHash)
		return Session{}, ErrInvalidCredentials
	}
	for _, acct := range accounts {
		ok, err := a.hasher.Verify(password, acct.PasswordHash)
		if err != nil || !ok {
			continue
		}
		token, expires, err := a.Issue(acct)
		if err != nil {
			return Session{}, err
		}
		return Session{Token: token, ExpiresAt: expires, Identity: acct.Identity()}, nil
	}
	return Session{}, ErrInvalidCredentials
}
