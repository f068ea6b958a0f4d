package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"hirehub.dev/internal/audit"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
)

type createOrganizationRequest struct {
	Name string `json:"org_name"`
}

type updateOrganizationRequest struct {
	Name        optionalString `json:"org_name"`
	ThemeColor  optionalString `json:"theme_color"`
	LogoURL     optionalString `json:"logo_url"`
	Description optionalString `json:"description"`
	Website     optionalString `json:"website"`
}

type jobRequest struct {
	OrgID           string         `json:"org_id"`
	Title           optionalString `json:"title"`
	WorkPolicy      optionalString `json:"work_policy"`
	Location        optionalString `json:"location"`
	Department      optionalString `json:"department"`
	EmploymentType  optionalString `json:"employment_type"`
	ExperienceLevel optionalString `json:"experience_level"`
	JobType         optionalString `json:"job_type"`
	SalaryRange     optionalString `json:"salary_range"`
	Slug            optionalString `json:"job_slug"`
	Description     optionalString `json:"job_description"`
	ClosedAt        optionalString `json:"closed_at"`
}

type createApplicationRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	JobID  string `json:"job_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.svc.CreateOrganization(r.Context(), req.Name)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/organizations/%s", org.ID))
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := a.svc.ListOrganizations(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (a *API) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := a.svc.GetOrganization(r.Context(), r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) handleUpdateOrganization(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req updateOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.svc.UpdateOrganization(r.Context(), caller, r.PathValue("id"), board.OrganizationPatch{
		Name:        board.StringField(req.Name.ptr()),
		ThemeColor:  board.StringField(req.ThemeColor.ptr()),
		LogoURL:     board.StringField(req.LogoURL.ptr()),
		Description: board.StringField(req.Description.ptr()),
		Website:     board.StringField(req.Website.ptr()),
	})
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.updated", zap.String("org_id", org.ID))
	writeJSON(w, http.StatusOK, org)
}

func (a *API) handleCreateJob(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkIDs("org_id", req.OrgID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	closed, err := board.ParseClosedAt(req.ClosedAt.ptr())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	in := board.JobInput{
		OrgID:           req.OrgID,
		Title:           str(req.Title),
		WorkPolicy:      str(req.WorkPolicy),
		Location:        str(req.Location),
		Department:      str(req.Department),
		EmploymentType:  str(req.EmploymentType),
		ExperienceLevel: str(req.ExperienceLevel),
		JobType:         str(req.JobType),
		SalaryRange:     str(req.SalaryRange),
		Slug:            str(req.Slug),
		Description:     str(req.Description),
	}
	if at, ok := closed.Value(); ok {
		in.ClosedAt = &at
	}
	job, err := a.svc.CreateJob(r.Context(), caller, in)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/jobs/%s", job.ID))
	writeJSON(w, http.StatusCreated, job)
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.svc.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	jobs, err := a.svc.ListJobs(r.Context(), r.PathValue("id"), page)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (a *API) handleUpdateJob(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrgID != "" {
		writeError(w, r, http.StatusBadRequest, "org_id cannot be changed")
		return
	}
	closed, err := board.ParseClosedAt(req.ClosedAt.ptr())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	job, err := a.svc.UpdateJob(r.Context(), caller, r.PathValue("id"), board.JobPatch{
		Title:           board.StringField(req.Title.ptr()),
		WorkPolicy:      board.StringField(req.WorkPolicy.ptr()),
		Location:        board.StringField(req.Location.ptr()),
		Department:      board.StringField(req.Department.ptr()),
		EmploymentType:  board.StringField(req.EmploymentType.ptr()),
		ExperienceLevel: board.StringField(req.ExperienceLevel.ptr()),
		JobType:         board.StringField(req.JobType.ptr()),
		SalaryRange:     board.StringField(req.SalaryRange.ptr()),
		Slug:            board.StringField(req.Slug.ptr()),
		Description:     board.StringField(req.Description.ptr()),
		ClosedAt:        closed,
	})
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *API) handleRemoveJob(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	id := r.PathValue("id")
	if err := a.svc.RemoveJob(r.Context(), caller, id); err != nil {
		a.handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "job.removed", zap.String("job_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleJobAnalytics(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	q := r.URL.Query()
	var rng board.DateRange
	for _, f := range []struct {
		key string
		dst *time.Time
		end bool
	}{{"startDate", &rng.Start, false}, {"endDate", &rng.End, true}} {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		t, err := parseDateBound(raw, f.end)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, f.key+" must be an RFC 3339 timestamp or a YYYY-MM-DD date")
			return
		}
		*f.dst = t
	}
	summaries, err := a.svc.AnalyzeJobs(r.Context(), caller, r.PathValue("id"), board.AnalyticsFilter{
		TitleContains: q.Get("jobName"),
		JobType:       q.Get("jobType"),
		WorkPolicy:    q.Get("workPolicy"),
		Location:      q.Get("location"),
	}, rng)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// parseDateBound accepts a timestamp or a bare date. A bare end date covers
// the whole day.
func parseDateBound(raw string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (a *API) handleCreateApplication(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req createApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkIDs("user_id", req.UserID, "job_id", req.JobID, "org_id", req.OrgID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	app, err := a.svc.CreateApplication(r.Context(), caller, board.ApplicationInput{
		UserID: req.UserID,
		JobID:  req.JobID,
		OrgID:  req.OrgID,
	})
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/applications/%s", app.ID))
	writeJSON(w, http.StatusCreated, app)
}

func (a *API) handleGetApplication(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	app, err := a.svc.GetApplication(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (a *API) handleListApplications(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	apps, err := a.svc.ListApplications(r.Context(), caller, r.PathValue("id"), strings.TrimSpace(r.URL.Query().Get("user_id")), page)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (a *API) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status, err := board.ParseStatus(req.Status)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	app, err := a.svc.UpdateApplicationStatus(r.Context(), caller, r.PathValue("id"), status)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "application.status_changed",
		zap.String("application_id", app.ID),
		zap.String("status", string(app.Status)))
	writeJSON(w, http.StatusOK, app)
}

func str(o optionalString) string {
	if o.value == nil {
		return ""
	}
	return *o.value
}
