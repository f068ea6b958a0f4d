package auth

import "context"

// AccountStore is the read side of the credential store used by the Authority.
type AccountStore interface {
	// AccountByID returns ErrNotFound when the user no longer exists.
	AccountByID(ctx context.Context, id string) (Account, error)
	// AccountsByEmail returns every account with exactly this email, oldest first.
	AccountsByEmail(ctx context.Context, email string) ([]Account, error)
}
