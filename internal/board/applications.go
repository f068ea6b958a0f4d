package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hirehub.dev/internal/auth"
)

// ApplicationInput submits UserID for JobID. OrgID is optional and must
// match the job's organization when given.
type ApplicationInput struct {
	UserID string
	JobID  string
	OrgID  string
}

// CreateApplication records a pending application. The applicant must be the
// caller unless the caller belongs to the job's organization. A second
// application for the same (user, job) pair is a conflict.
func (s *Service) CreateApplication(ctx context.Context, caller auth.Identity, in ApplicationInput) (Application, error) {
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.JobID) == "" {
		return Application{}, fmt.Errorf("%w: user_id and job_id are required", ErrInvalidInput)
	}
	job, err := s.store.Jobs().Get(ctx, in.JobID)
	if err != nil {
		return Application{}, err
	}
	if in.OrgID != "" && in.OrgID != job.OrgID {
		return Application{}, fmt.Errorf("%w: org_id does not match the job's organization", ErrInvalidInput)
	}
	if _, err := s.store.Users().Get(ctx, in.UserID); err != nil {
		return Application{}, err
	}
	if err := auth.AuthorizeOrgOrUser(caller, job.OrgID, in.UserID); err != nil {
		return Application{}, err
	}

	_, err = s.store.Applications().FindByUserAndJob(ctx, in.UserID, job.ID)
	switch {
	case err == nil:
		return Application{}, fmt.Errorf("%w: user already applied to this job", ErrConflict)
	case !errors.Is(err, ErrNotFound):
		return Application{}, err
	}

	now := s.timestamp()
	app := Application{
		ID:        s.newID(),
		UserID:    in.UserID,
		OrgID:     job.OrgID,
		JobID:     job.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Applications().Create(ctx, app); err != nil {
		if errors.Is(err, ErrConflict) {
			return Application{}, fmt.Errorf("%w: user already applied to this job", ErrConflict)
		}
		return Application{}, err
	}
	return app, nil
}

// GetApplication returns an application to its organization or its applicant.
func (s *Service) GetApplication(ctx context.Context, caller auth.Identity, id string) (Application, error) {
	app, err := s.store.Applications().Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := auth.AuthorizeOrgOrUser(caller, app.OrgID, app.UserID); err != nil {
		return Application{}, err
	}
	return app, nil
}

// ListApplications returns one newest-first page of an organization's
// applications, optionally narrowed to one applicant.
func (s *Service) ListApplications(ctx context.Context, caller auth.Identity, orgID, userID string, page Page) (Paged[Application], error) {
	if _, err := s.store.Organizations().Get(ctx, orgID); err != nil {
		return Paged[Application]{}, err
	}
	if err := auth.AuthorizeOrgScoped(caller, orgID); err != nil {
		return Paged[Application]{}, err
	}
	page = page.Normalize()
	items, total, err := s.store.Applications().ListByOrg(ctx, orgID, userID, page.Offset(), page.Limit)
	if err != nil {
		return Paged[Application]{}, err
	}
	if items == nil {
		items = []Application{}
	}
	return Paged[Application]{Items: items, Total: total, Page: page.Number, Limit: page.Limit}, nil
}

// UpdateApplicationStatus overwrites the status for a member of the
// application's organization. Any status may follow any other.
func (s *Service) UpdateApplicationStatus(ctx context.Context, caller auth.Identity, id string, status ApplicationStatus) (Application, error) {
	if !status.Valid() {
		return Application{}, fmt.Errorf("%w: unknown application status %q", ErrInvalidInput, status)
	}
	app, err := s.store.Applications().Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := auth.AuthorizeOrgScoped(caller, app.OrgID); err != nil {
		return Application{}, err
	}
	now := s.timestamp()
	if err := s.store.Applications().UpdateStatus(ctx, id, status, now); err != nil {
		return Application{}, err
	}
	app.Status = status
	app.UpdatedAt = now
	return app, nil
}
