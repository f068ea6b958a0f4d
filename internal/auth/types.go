package auth

import "time"

// Account is the credential view of a stored user.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	OrgID        string
	RoleID       string
	CreatedAt    time.Time
}

// Identity is the verified answer to "who is making this call".
// It is the only vocabulary authorization decisions consume.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	OrgID  string `json:"org_id"`
	RoleID string `json:"role_id"`
}

// Session is returned by a successful login.
type Session struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Identity  Identity  `json:"user"`
}

// Identity projects the account onto the identity vocabulary.
func (a Account) Identity() Identity {
	return Identity{UserID: a.ID, Email: a.Email, OrgID: a.OrgID, RoleID: a.RoleID}
}
