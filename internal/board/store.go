package board

import (
	"context"
	"time"
)

// Store is the credential store the workflows run against. Every insert is
// backed by the uniqueness constraints listed on each sub-store and reports a
// violation as ErrConflict. Lookups report missing rows as ErrNotFound.
type Store interface {
	Organizations() OrganizationStore
	Roles() RoleStore
	Users() UserStore
	Jobs() JobStore
	Applications() ApplicationStore

	// WithinTx runs fn against a transactional view of the store. An error
	// from fn rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// OrganizationStore persists organizations. lower(Name) is unique.
type OrganizationStore interface {
	Create(ctx context.Context, org Organization) error
	Get(ctx context.Context, id string) (Organization, error)
	// GetForUpdate is Get that also locks the row for the enclosing transaction.
	GetForUpdate(ctx context.Context, id string) (Organization, error)
	FindByName(ctx context.Context, name string) (Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Update(ctx context.Context, org Organization) error
}

// RoleStore persists roles. (OrgID, Name) is unique.
type RoleStore interface {
	Create(ctx context.Context, role Role) error
	FindByName(ctx context.Context, orgID, name string) (Role, error)
}

// UserStore persists users. (OrgID, Email) is unique.
type UserStore interface {
	Create(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (User, error)
	// LockEmail serializes writers of one email until the enclosing
	// transaction ends. It is a no-op outside a transaction.
	LockEmail(ctx context.Context, email string) error
	// FindByEmail returns the users with this email across all organizations, oldest first.
	FindByEmail(ctx context.Context, email string) ([]User, error)
	FindInOrg(ctx context.Context, orgID, email string) (User, error)
}

// JobStore persists jobs. A non-empty Slug is unique.
type JobStore interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	// GetForUpdate is Get that also locks the row for the enclosing transaction.
	GetForUpdate(ctx context.Context, id string) (Job, error)
	Update(ctx context.Context, job Job) error
	Delete(ctx context.Context, id string) error
	// ListByOrg returns one newest-first page and the total match count.
	ListByOrg(ctx context.Context, orgID string, offset, limit int) ([]Job, int, error)
	// Search returns every job of orgID matching the case-insensitive substring filters.
	Search(ctx context.Context, orgID string, filter AnalyticsFilter) ([]Job, error)
}

// ApplicationStore persists applications. (UserID, JobID) is unique.
type ApplicationStore interface {
	Create(ctx context.Context, app Application) error
	Get(ctx context.Context, id string) (Application, error)
	FindByUserAndJob(ctx context.Context, userID, jobID string) (Application, error)
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus, at time.Time) error
	// ListByOrg returns one newest-first page; a non-empty userID narrows to one applicant.
	ListByOrg(ctx context.Context, orgID, userID string, offset, limit int) ([]Application, int, error)
	// ListForJobs returns the applications of jobIDs created within r, oldest first.
	ListForJobs(ctx context.Context, jobIDs []string, r DateRange) ([]Application, error)
}
