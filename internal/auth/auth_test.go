package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]Account
}

func newFakeAccounts(accts ...Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]Account{}}
	for _, a := range accts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) AccountByID(_ context.Context, id string) (Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) AccountsByEmail(_ context.Context, email string) ([]Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Account
	for _, a := range f.byID {
		if a.Email == email {
			out = append(out, a)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeAccounts) put(a Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID] = a
}

func (f *fakeAccounts) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

func mustHash(t *testing.T, h PasswordHasher, password string) string {
	t.Helper()
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return hash
}

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(AlgoBcrypt, 4)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func newTestAuthority(t *testing.T, store AccountStore, opts ...Option) *Authority {
	t.Helper()
	opts = append([]Option{WithHasher(testHasher(t))}, opts...)
	a, err := NewAuthority(store, "test-secret", opts...)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	return a
}

func TestNewAuthorityRequiresSecret(t *testing.T) {
	if _, err := NewAuthority(newFakeAccounts(), "  "); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewAuthority(nil, "secret"); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewAuthority(newFakeAccounts(), "secret", WithTTL(-time.Minute)); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}

func TestAuthenticateAndValidate(t *testing.T) {
	h := testHasher(t)
	acct := Account{ID: "u1", Email: "a@x.io", PasswordHash: mustHash(t, h, "pw-1"), OrgID: "o1", RoleID: "r1"}
	store := newFakeAccounts(acct)
	a := newTestAuthority(t, store, WithIssuer("test-issuer"))

	sess, err := a.Authenticate(context.Background(), "a@x.io", "pw-1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Token == "" {
		t.Fatalf("expected token")
	}
	if want := (Identity{UserID: "u1", Email: "a@x.io", OrgID: "o1", RoleID: "r1"}); sess.Identity != want {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if time.Until(sess.ExpiresAt) <= 6*24*time.Hour {
		t.Fatalf("expected seven day expiry, got %v", sess.ExpiresAt)
	}

	id, err := a.Validate(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if id != sess.Identity {
		t.Fatalf("validate identity mismatch: %+v", id)
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	h := testHasher(t)
	store := newFakeAccounts(Account{ID: "u1", Email: "a@x.io", PasswordHash: mustHash(t, h, "pw-1")})
	a := newTestAuthority(t, store)

	_, wrongPassword := a.Authenticate(context.Background(), "a@x.io", "nope")
	_, unknownEmail := a.Authenticate(context.Background(), "ghost@x.io", "pw-1")
	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v / %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
	if !errors.Is(wrongPassword, ErrUnauthenticated) {
		t.Fatalf("expected umbrella unauthenticated match")
	}
}

func TestAuthenticateSharedEmailPicksMatchingPassword(t *testing.T) {
	h := testHasher(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeAccounts(
		Account{ID: "u-old", Email: "c@x.io", PasswordHash: mustHash(t, h, "first"), OrgID: "o1", CreatedAt: base},
		Account{ID: "u-new", Email: "c@x.io", PasswordHash: mustHash(t, h, "second"), OrgID: "o2", CreatedAt: base.Add(time.Hour)},
	)
	a := newTestAuthority(t, store)

	sess, err := a.Authenticate(context.Background(), "c@x.io", "second")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Identity.UserID != "u-new" || sess.Identity.OrgID != "o2" {
		t.Fatalf("unexpected account selected: %+v", sess.Identity)
	}
}

func TestValidateReflectsCurrentMembership(t *testing.T) {
	h := testHasher(t)
	store := newFakeAccounts(Account{ID: "u1", Email: "a@x.io", PasswordHash: mustHash(t, h, "pw"), OrgID: "o1", RoleID: "r1"})
	a := newTestAuthority(t, store)

	sess, err := a.Authenticate(context.Background(), "a@x.io", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	store.put(Account{ID: "u1", Email: "a@x.io", OrgID: "o9", RoleID: "r9"})

	id, err := a.Validate(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if id.OrgID != "o9" || id.RoleID != "r9" {
		t.Fatalf("expected fresh membership, got %+v", id)
	}

	store.remove("u1")
	if _, err := a.Validate(context.Background(), sess.Token); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

func TestValidateErrorKinds(t *testing.T) {
	store := newFakeAccounts(Account{ID: "u1", Email: "a@x.io"})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	a := newTestAuthority(t, store, WithClock(clock), WithTTL(time.Hour))

	token, _, err := a.Issue(Account{ID: "u1", Email: "a@x.io"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later := newTestAuthority(t, store, WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
	if _, err := later.Validate(context.Background(), token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired, got %v", err)
	}

	earlier := newTestAuthority(t, store, WithClock(func() time.Time { return now.Add(-time.Hour) }))
	if _, err := earlier.Validate(context.Background(), token); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("expected not yet valid, got %v", err)
	}

	if _, err := a.Validate(context.Background(), "not-a-token"); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected malformed, got %v", err)
	}

	other, err := NewAuthority(store, "other-secret", WithHasher(testHasher(t)), WithClock(clock))
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	if _, err := other.Validate(context.Background(), token); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected malformed for foreign signature, got %v", err)
	}

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := noSubject.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := a.Validate(context.Background(), signed); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: defaultIssuer, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := a.Validate(context.Background(), unsigned); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected malformed for alg none, got %v", err)
	}
}

func TestIssueCarriesUniqueTokenID(t *testing.T) {
	a := newTestAuthority(t, newFakeAccounts())
	acct := Account{ID: "u1", Email: "a@x.io", OrgID: "o1", RoleID: "r1"}
	t1, _, err := a.Issue(acct)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t2, _, err := a.Issue(acct)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if t1 == t2 {
		t.Fatalf("expected distinct tokens")
	}
	if _, _, err := a.Issue(Account{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty account, got %v", err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("expected no identity")
	}
	ctx := ContextWithIdentity(context.Background(), Identity{UserID: "u1", OrgID: "o1"})
	ctx = ContextWithToken(ctx, "tok")
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID != "u1" || id.OrgID != "o1" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if tok, ok := TokenFromContext(ctx); !ok || tok != "tok" {
		t.Fatalf("unexpected token %q", tok)
	}
}
