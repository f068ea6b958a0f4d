package board

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"hirehub.dev/internal/auth"
)

// Registration creates (or joins) an organization together with its first user.
type Registration struct {
	Name     string
	Email    string
	Password string
	OrgName  string
	// RoleName overrides the admin role name the registrant is bound to.
	RoleName string
}

// Registered is the outcome of Register.
type Registered struct {
	User         User         `json:"user"`
	Organization Organization `json:"organization"`
	Roles        DefaultRoles `json:"roles"`
}

// CandidateInput creates a candidate inside an existing organization.
type CandidateInput struct {
	Name     string
	Email    string
	Password string
	OrgID    string
}

func validateCredentials(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if len(name) < 2 {
		return "", "", fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		return "", "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(password) < 6 {
		return "", "", fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	return name, email, nil
}

// Register rejects an email already used anywhere, resolves the organization
// by case-insensitive name (creating it when absent), provisions its default
// roles and creates the user bound to the admin role.
func (s *Service) Register(ctx context.Context, in Registration) (Registered, error) {
	name, email, err := validateCredentials(in.Name, in.Email, in.Password)
	if err != nil {
		return Registered{}, err
	}
	orgName, err := validateOrgName(in.OrgName)
	if err != nil {
		return Registered{}, err
	}

	var out Registered
	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Users().LockEmail(ctx, email); err != nil {
			return err
		}
		existing, err := tx.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}

		org, err := s.findOrCreateOrganization(ctx, tx, orgName)
		if err != nil {
			return err
		}
		roles, err := s.provisioner(tx).EnsureDefaultRoles(ctx, org.ID, in.RoleName)
		if err != nil {
			return err
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		now := s.timestamp()
		user := User{
			ID:           s.newID(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			OrgID:        org.ID,
			RoleID:       roles.Admin.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		out = Registered{User: user, Organization: org, Roles: roles}
		return nil
	})
	if err != nil {
		return Registered{}, err
	}
	return out, nil
}

// CreateCandidate rejects an email already used inside the organization,
// requires the organization to exist and binds the new user to its candidate role.
func (s *Service) CreateCandidate(ctx context.Context, in CandidateInput) (User, error) {
	name, email, err := validateCredentials(in.Name, in.Email, in.Password)
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.OrgID) == "" {
		return User{}, fmt.Errorf("%w: org_id is required", ErrInvalidInput)
	}

	var out User
	err = s.store.WithinTx(ctx, func(tx Store) error {
		_, err := tx.Users().FindInOrg(ctx, in.OrgID, email)
		switch {
		case err == nil:
			return fmt.Errorf("%w: email already registered in this organization", ErrConflict)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		org, err := tx.Organizations().Get(ctx, in.OrgID)
		if err != nil {
			return err
		}
		roles, err := s.provisioner(tx).EnsureDefaultRoles(ctx, org.ID, "")
		if err != nil {
			return err
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		now := s.timestamp()
		user := User{
			ID:           s.newID(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			OrgID:        org.ID,
			RoleID:       roles.Candidate.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

// GetUser returns a user visible to members of its organization or to itself.
func (s *Service) GetUser(ctx context.Context, caller auth.Identity, id string) (User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := auth.AuthorizeOrgOrUser(caller, user.OrgID, user.ID); err != nil {
		return User{}, err
	}
	return user, nil
}
