package auth

import "fmt"

// AuthorizeOrgScoped allows the call only when the caller belongs to resourceOrgID.
// Existence of the resource must already have been established by the caller.
func AuthorizeOrgScoped(id Identity, resourceOrgID string) error {
	if id.OrgID == "" || id.OrgID != resourceOrgID {
		return fmt.Errorf("%w: organization scope mismatch", ErrForbidden)
	}
	return nil
}

// AuthorizeUserScoped allows the call only when the caller is resourceUserID.
func AuthorizeUserScoped(id Identity, resourceUserID string) error {
	if id.UserID == "" || id.UserID != resourceUserID {
		return fmt.Errorf("%w: user scope mismatch", ErrForbidden)
	}
	return nil
}

// AuthorizeOrgOrUser allows members of the owning organization or the owning user.
func AuthorizeOrgOrUser(id Identity, resourceOrgID, resourceUserID string) error {
	if AuthorizeOrgScoped(id, resourceOrgID) == nil {
		return nil
	}
	return AuthorizeUserScoped(id, resourceUserID)
}
