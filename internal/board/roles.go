package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/ids"
	"hirehub.dev/internal/obs"
)

// Provisioner guarantees every organization owns an admin and a candidate role.
// The (org_id, name) constraint of the RoleStore arbitrates concurrent callers.
type Provisioner struct {
	roles RoleStore
	now   func() time.Time
	newID func() string
}

// NewProvisioner returns a Provisioner writing through roles.
func NewProvisioner(roles RoleStore) *Provisioner {
	return &Provisioner{roles: roles, now: time.Now, newID: ids.New}
}

// EnsureDefaultRoles finds or creates the admin role (named adminName, "admin"
// when empty) and the candidate role of orgID. Repeated calls return the same ids.
func (p *Provisioner) EnsureDefaultRoles(ctx context.Context, orgID, adminName string) (DefaultRoles, error) {
	if strings.TrimSpace(orgID) == "" {
		return DefaultRoles{}, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	adminName = strings.TrimSpace(adminName)
	if adminName == "" {
		adminName = RoleAdmin
	}

	admin, adminErr := p.roles.FindByName(ctx, orgID, adminName)
	if adminErr != nil && !errors.Is(adminErr, ErrNotFound) {
		return DefaultRoles{}, adminErr
	}
	candidate, candErr := p.roles.FindByName(ctx, orgID, RoleCandidate)
	if candErr != nil && !errors.Is(candErr, ErrNotFound) {
		return DefaultRoles{}, candErr
	}
	if adminErr == nil && candErr == nil {
		return DefaultRoles{Admin: admin, Candidate: candidate}, nil
	}

	var err error
	if admin, err = p.findOrCreate(ctx, orgID, adminName, auth.AdminAccess); err != nil {
		return DefaultRoles{}, err
	}
	if candidate, err = p.findOrCreate(ctx, orgID, RoleCandidate, auth.CandidateAccess); err != nil {
		return DefaultRoles{}, err
	}
	return DefaultRoles{Admin: admin, Candidate: candidate}, nil
}

// findOrCreate inserts the role and treats a uniqueness conflict as "another
// caller won": the existing row is re-fetched and returned.
func (p *Provisioner) findOrCreate(ctx context.Context, orgID, name string, access auth.AccessDescriptor) (Role, error) {
	role := Role{
		ID:        p.newID(),
		OrgID:     orgID,
		Name:      name,
		Access:    access,
		CreatedAt: p.now().UTC(),
	}
	err := p.roles.Create(ctx, role)
	switch {
	case err == nil:
		obs.RecordRolesProvisioned(1)
		return role, nil
	case errors.Is(err, ErrConflict):
		existing, ferr := p.roles.FindByName(ctx, orgID, name)
		if ferr != nil {
			return Role{}, fmt.Errorf("refetch role %s: %w", name, ferr)
		}
		return existing, nil
	default:
		return Role{}, err
	}
}
