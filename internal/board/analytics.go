package board

import (
	"context"
	"fmt"

	"hirehub.dev/internal/auth"
)

// AnalyzeJobs summarises every job of orgID matching filter together with
// its applications created within r. Jobs without matching applications are
// kept with an empty list.
func (s *Service) AnalyzeJobs(ctx context.Context, caller auth.Identity, orgID string, filter AnalyticsFilter, r DateRange) ([]JobSummary, error) {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}
	if _, err := s.store.Organizations().Get(ctx, orgID); err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOrgScoped(caller, orgID); err != nil {
		return nil, err
	}

	jobs, err := s.store.Jobs().Search(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]JobSummary, 0, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}

	jobIDs := make([]string, len(jobs))
	for i, j := range jobs {
		jobIDs[i] = j.ID
	}
	apps, err := s.store.Applications().ListForJobs(ctx, jobIDs, r)
	if err != nil {
		return nil, err
	}
	byJob := make(map[string][]ApplicationSummary, len(jobs))
	for _, a := range apps {
		byJob[a.JobID] = append(byJob[a.JobID], ApplicationSummary{
			ID:        a.ID,
			UserID:    a.UserID,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
		})
	}

	for _, j := range jobs {
		list := byJob[j.ID]
		if list == nil {
			list = []ApplicationSummary{}
		}
		out = append(out, JobSummary{
			JobID:             j.ID,
			Title:             j.Title,
			WorkPolicy:        j.WorkPolicy,
			JobType:           j.JobType,
			Location:          j.Location,
			TotalApplications: len(list),
			Applications:      list,
		})
	}
	return out, nil
}
