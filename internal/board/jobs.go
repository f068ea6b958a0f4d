package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hirehub.dev/internal/auth"
)

// JobInput describes a new posting. OrgID defaults to the caller's organization.
type JobInput struct {
	OrgID           string
	Title           string
	WorkPolicy      string
	Location        string
	Department      string
	EmploymentType  string
	ExperienceLevel string
	JobType         string
	SalaryRange     string
	Slug            string
	Description     string
	ClosedAt        *time.Time
}

// CreateJob posts a job under the caller's organization.
func (s *Service) CreateJob(ctx context.Context, caller auth.Identity, in JobInput) (Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Job{}, fmt.Errorf("%w: job title is required", ErrInvalidInput)
	}
	orgID := in.OrgID
	if orgID == "" {
		orgID = caller.OrgID
	}
	if _, err := s.store.Organizations().Get(ctx, orgID); err != nil {
		return Job{}, err
	}
	if err := auth.AuthorizeOrgScoped(caller, orgID); err != nil {
		return Job{}, err
	}
	job := Job{
		ID:              s.newID(),
		OrgID:           orgID,
		Title:           title,
		WorkPolicy:      in.WorkPolicy,
		Location:        in.Location,
		Department:      in.Department,
		EmploymentType:  in.EmploymentType,
		ExperienceLevel: in.ExperienceLevel,
		JobType:         in.JobType,
		SalaryRange:     in.SalaryRange,
		Slug:            strings.TrimSpace(in.Slug),
		Description:     in.Description,
		CreatedAt:       s.timestamp(),
	}
	if in.ClosedAt != nil {
		closed := in.ClosedAt.UTC()
		job.ClosedAt = &closed
	}
	if err := s.store.Jobs().Create(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// GetJob returns one job. Postings are public.
func (s *Service) GetJob(ctx context.Context, id string) (Job, error) {
	return s.store.Jobs().Get(ctx, id)
}

// ListJobs returns one newest-first page of an organization's postings.
func (s *Service) ListJobs(ctx context.Context, orgID string, page Page) (Paged[Job], error) {
	if _, err := s.store.Organizations().Get(ctx, orgID); err != nil {
		return Paged[Job]{}, err
	}
	page = page.Normalize()
	items, total, err := s.store.Jobs().ListByOrg(ctx, orgID, page.Offset(), page.Limit)
	if err != nil {
		return Paged[Job]{}, err
	}
	if items == nil {
		items = []Job{}
	}
	return Paged[Job]{Items: items, Total: total, Page: page.Number, Limit: page.Limit}, nil
}

// UpdateJob applies patch for a member of the job's organization.
func (s *Service) UpdateJob(ctx context.Context, caller auth.Identity, id string, patch JobPatch) (Job, error) {
	if err := patch.validate(); err != nil {
		return Job{}, err
	}
	var out Job
	err := s.store.WithinTx(ctx, func(tx Store) error {
		job, err := tx.Jobs().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOrgScoped(caller, job.OrgID); err != nil {
			return err
		}
		patch.applyTo(&job)
		job.Title = strings.TrimSpace(job.Title)
		job.Slug = strings.TrimSpace(job.Slug)
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return Job{}, err
	}
	return out, nil
}

// RemoveJob deletes a job for a member of its organization.
func (s *Service) RemoveJob(ctx context.Context, caller auth.Identity, id string) error {
	return s.store.WithinTx(ctx, func(tx Store) error {
		job, err := tx.Jobs().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.AuthorizeOrgScoped(caller, job.OrgID); err != nil {
			return err
		}
		return tx.Jobs().Delete(ctx, id)
	})
}
