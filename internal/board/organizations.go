package board

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hirehub.dev/internal/assets"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/obs"
)

// CreateOrganization creates an organization and provisions its default roles.
// A name that already exists in any letter case is a conflict.
func (s *Service) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	name, err := validateOrgName(name)
	if err != nil {
		return Organization{}, err
	}
	var out Organization
	err = s.store.WithinTx(ctx, func(tx Store) error {
		now := s.timestamp()
		org := Organization{ID: s.newID(), Name: name, CreatedAt: now, UpdatedAt: now}
		if err := tx.Organizations().Create(ctx, org); err != nil {
			if errors.Is(err, ErrConflict) {
				return fmt.Errorf("%w: organization name already taken", ErrConflict)
			}
			return err
		}
		if _, err := s.provisioner(tx).EnsureDefaultRoles(ctx, org.ID, ""); err != nil {
			return err
		}
		out = org
		return nil
	})
	if err != nil {
		return Organization{}, err
	}
	return out, nil
}

// findOrCreateOrganization resolves name case-insensitively. A conflict on
// insert means a concurrent caller created it first, so the row is re-fetched.
func (s *Service) findOrCreateOrganization(ctx context.Context, tx Store, name string) (Organization, error) {
	org, err := tx.Organizations().FindByName(ctx, name)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Organization{}, err
	}
	now := s.timestamp()
	org = Organization{ID: s.newID(), Name: name, CreatedAt: now, UpdatedAt: now}
	err = tx.Organizations().Create(ctx, org)
	switch {
	case err == nil:
		return org, nil
	case errors.Is(err, ErrConflict):
		return tx.Organizations().FindByName(ctx, name)
	default:
		return Organization{}, err
	}
}

// GetOrganization returns one organization. Organizations are public.
func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return s.store.Organizations().Get(ctx, id)
}

// ListOrganizations returns every organization, oldest first.
func (s *Service) ListOrganizations(ctx context.Context) ([]Organization, error) {
	return s.store.Organizations().List(ctx)
}

// UpdateOrganization applies patch for a member of the organization. When the
// logo is replaced or cleared the previous asset is deleted after the save;
// that cleanup never affects the result.
func (s *Service) UpdateOrganization(ctx context.Context, caller auth.Identity, id string, patch OrganizationPatch) (Organization, error) {
	if err := patch.validate(); err != nil {
		return Organization{}, err
	}
	var org Organization
	var previousLogo string
	err := s.store.WithinTx(ctx, func(tx Store) error {
		locked, err := tx.Organizations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOrgScoped(caller, locked.ID); err != nil {
			return err
		}
		previousLogo = locked.LogoURL
		patch.applyTo(&locked)
		locked.UpdatedAt = s.timestamp()
		if err := tx.Organizations().Update(ctx, locked); err != nil {
			if errors.Is(err, ErrConflict) {
				return fmt.Errorf("%w: organization name already taken", ErrConflict)
			}
			return err
		}
		org = locked
		return nil
	})
	if err != nil {
		return Organization{}, err
	}

	if patch.LogoURL.Present() && previousLogo != "" && previousLogo != org.LogoURL {
		s.cleanupAsset(ctx, org.ID, previousLogo)
	}
	return org, nil
}

// AuthorizeAssetDelete refuses to delete an asset that is the current logo of
// an organization other than the caller's. target is a URL or an asset id.
func (s *Service) AuthorizeAssetDelete(ctx context.Context, caller auth.Identity, target string) error {
	targetID := s.assetID(target)
	orgs, err := s.store.Organizations().List(ctx)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if org.LogoURL == "" || org.ID == caller.OrgID {
			continue
		}
		if org.LogoURL == target || s.assetID(org.LogoURL) == targetID {
			return fmt.Errorf("%w: asset is the logo of another organization", ErrForbidden)
		}
	}
	return nil
}

// assetID resolves a hosted URL to its asset id; anything else is returned as is.
func (s *Service) assetID(raw string) string {
	if s.assets != nil {
		if id, ok := s.assets.ExtractID(raw); ok {
			return id
		}
	}
	return raw
}

// cleanupAsset deletes a replaced logo. Failures only reach the log and metrics.
func (s *Service) cleanupAsset(ctx context.Context, orgID, rawURL string) {
	if s.assets == nil {
		return
	}
	id, ok := s.assets.ExtractID(rawURL)
	if !ok {
		s.log.Debug("logo not hosted by asset store, skipping cleanup",
			zap.String("org_id", orgID), zap.String("url", rawURL))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	outcome, err := s.assets.Delete(ctx, id)
	if err != nil {
		obs.RecordAssetCleanup("error")
		s.log.Warn("logo cleanup failed",
			zap.String("org_id", orgID), zap.String("asset_id", id), zap.Error(err))
		return
	}
	if outcome == assets.OutcomeNotFound {
		obs.RecordAssetCleanup("not_found")
		s.log.Info("replaced logo already absent",
			zap.String("org_id", orgID), zap.String("asset_id", id))
		return
	}
	obs.RecordAssetCleanup("ok")
}
