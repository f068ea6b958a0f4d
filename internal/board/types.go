package board

import (
	"fmt"
	"time"

	"hirehub.dev/internal/auth"
)

// Organization is a tenant. Every other entity is owned by exactly one.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"org_name"`
	ThemeColor  string    `json:"theme_color,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role names provisioned for every organization.
const (
	RoleAdmin     = "admin"
	RoleCandidate = "candidate"
)

// Role binds a capability descriptor to a name within one organization.
type Role struct {
	ID        string                `json:"id"`
	OrgID     string                `json:"org_id"`
	Name      string                `json:"role_name"`
	Access    auth.AccessDescriptor `json:"role_access"`
	CreatedAt time.Time             `json:"created_at"`
}

// User is a member of one organization. PasswordHash is never serialised.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	OrgID        string    `json:"org_id"`
	RoleID       string    `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account returns the credential view consumed by the Authority.
func (u User) Account() auth.Account {
	return auth.Account{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		OrgID:        u.OrgID,
		RoleID:       u.RoleID,
		CreatedAt:    u.CreatedAt,
	}
}

// Job is a posting. A nil ClosedAt means the job is open.
type Job struct {
	ID              string     `json:"id"`
	OrgID           string     `json:"org_id"`
	Title           string     `json:"title"`
	WorkPolicy      string     `json:"work_policy,omitempty"`
	Location        string     `json:"location,omitempty"`
	Department      string     `json:"department,omitempty"`
	EmploymentType  string     `json:"employment_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	JobType         string     `json:"job_type,omitempty"`
	SalaryRange     string     `json:"salary_range,omitempty"`
	Slug            string     `json:"job_slug,omitempty"`
	Description     string     `json:"job_description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ClosedAt        *time.Time `json:"closed_at"`
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ParseStatus converts raw into an ApplicationStatus.
func ParseStatus(raw string) (ApplicationStatus, error) {
	s := ApplicationStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown application status %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// Application is one user's candidacy for one job. OrgID always equals the job's.
type Application struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	OrgID     string            `json:"org_id"`
	JobID     string            `json:"job_id"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DefaultRoles is the canonical role pair of an organization.
type DefaultRoles struct {
	Admin     Role `json:"admin"`
	Candidate Role `json:"candidate"`
}

// ApplicationSummary is the compact per-application row in analytics output.
type ApplicationSummary struct {
	ID        string            `json:"application_id"`
	UserID    string            `json:"user_id"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// JobSummary is one row of AnalyzeJobs output.
type JobSummary struct {
	JobID             string               `json:"job_id"`
	Title             string               `json:"title"`
	WorkPolicy        string               `json:"work_policy"`
	JobType           string               `json:"job_type"`
	Location          string               `json:"location"`
	TotalApplications int                  `json:"total_applications"`
	Applications      []ApplicationSummary `json:"applications"`
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Page selects a window of a newest-first listing. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}

// Paged is one page of a listing together with the full match count.
type Paged[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// AnalyticsFilter narrows the job set. Empty fields do not filter.
type AnalyticsFilter struct {
	TitleContains string
	JobType       string
	WorkPolicy    string
	Location      string
}

// DateRange bounds application creation times. Zero bounds are open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
