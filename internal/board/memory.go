package board

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hirehub.dev/internal/auth"
)

// InMemory implements Store and auth.AccountStore with in-process concurrency
// safety. It enforces the same uniqueness and reference constraints as the
// Postgres schema. Transactions are serialized and rolled back via an undo log.
type InMemory struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	orgs  map[string]Organization
	roles map[string]Role
	users map[string]User
	jobs  map[string]Job
	apps  map[string]Application
	// insertion order, used as the tie-breaker for equal timestamps
	seq   uint64
	order map[string]uint64
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		orgs:  make(map[string]Organization),
		roles: make(map[string]Role),
		users: make(map[string]User),
		jobs:  make(map[string]Job),
		apps:  make(map[string]Application),
		order: make(map[string]uint64),
	}
}

var (
	_ Store             = (*InMemory)(nil)
	_ auth.AccountStore = (*InMemory)(nil)
)

// memView is a handle on the shared maps. Inside a transaction undo is non-nil
// and every write records its inverse.
type memView struct {
	m    *InMemory
	undo *[]func()
}

func (m *InMemory) view() memView { return memView{m: m} }

func (m *InMemory) Organizations() OrganizationStore { return memOrgs(m.view()) }
func (m *InMemory) Roles() RoleStore                 { return memRoles(m.view()) }
func (m *InMemory) Users() UserStore                 { return memUsers(m.view()) }
func (m *InMemory) Jobs() JobStore                   { return memJobs(m.view()) }
func (m *InMemory) Applications() ApplicationStore   { return memApps(m.view()) }

// WithinTx runs fn with exclusive access among transactions and undoes its
// writes when fn fails.
func (m *InMemory) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	var undo []func()
	tx := memTx{memView{m: m, undo: &undo}}
	if err := fn(tx); err != nil {
		m.mu.Lock()
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

type memTx struct{ v memView }

func (t memTx) Organizations() OrganizationStore { return memOrgs(t.v) }
func (t memTx) Roles() RoleStore                 { return memRoles(t.v) }
func (t memTx) Users() UserStore                 { return memUsers(t.v) }
func (t memTx) Jobs() JobStore                   { return memJobs(t.v) }
func (t memTx) Applications() ApplicationStore   { return memApps(t.v) }

func (t memTx) WithinTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

// record must be called with m.mu held.
func (v memView) record(fn func()) {
	if v.undo != nil {
		*v.undo = append(*v.undo, fn)
	}
}

func (v memView) stamp(id string) {
	v.m.seq++
	v.m.order[id] = v.m.seq
	v.record(func() { delete(v.m.order, id) })
}

// newerFirst orders by timestamp descending, then by insertion descending.
func (m *InMemory) newerFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return m.order[idA] > m.order[idB]
}

func (m *InMemory) olderFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return m.order[idA] < m.order[idB]
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsFold(field, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(needle))
}

// AccountByID implements auth.AccountStore.
func (m *InMemory) AccountByID(ctx context.Context, id string) (auth.Account, error) {
	u, err := m.Users().Get(ctx, id)
	if err != nil {
		return auth.Account{}, err
	}
	return u.Account(), nil
}

// AccountsByEmail implements auth.AccountStore.
func (m *InMemory) AccountsByEmail(ctx context.Context, email string) ([]auth.Account, error) {
	users, err := m.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]auth.Account, len(users))
	for i, u := range users {
		out[i] = u.Account()
	}
	return out, nil
}

// organizations

type memOrgs memView

func (s memOrgs) Create(_ context.Context, org Organization) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; ok {
		return fmt.Errorf("%w: organization id exists", ErrConflict)
	}
	for _, o := range m.orgs {
		if strings.EqualFold(o.Name, org.Name) {
			return fmt.Errorf("%w: organization name exists", ErrConflict)
		}
	}
	m.orgs[org.ID] = org
	memView(s).stamp(org.ID)
	memView(s).record(func() { delete(m.orgs, org.ID) })
	return nil
}

func (s memOrgs) Get(_ context.Context, id string) (Organization, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	o, ok := s.m.orgs[id]
	if !ok {
		return Organization{}, fmt.Errorf("%w: organization %s", ErrNotFound, id)
	}
	return o, nil
}

// GetForUpdate needs no row lock; transactions are already serialized.
func (s memOrgs) GetForUpdate(ctx context.Context, id string) (Organization, error) {
	return s.Get(ctx, id)
}

func (s memOrgs) FindByName(_ context.Context, name string) (Organization, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, o := range s.m.orgs {
		if strings.EqualFold(o.Name, name) {
			return o, nil
		}
	}
	return Organization{}, fmt.Errorf("%w: organization named %s", ErrNotFound, name)
}

func (s memOrgs) List(_ context.Context) ([]Organization, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Organization, 0, len(m.orgs))
	for _, o := range m.orgs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.olderFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s memOrgs) Update(_ context.Context, org Organization) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.orgs[org.ID]
	if !ok {
		return fmt.Errorf("%w: organization %s", ErrNotFound, org.ID)
	}
	for id, o := range m.orgs {
		if id != org.ID && strings.EqualFold(o.Name, org.Name) {
			return fmt.Errorf("%w: organization name exists", ErrConflict)
		}
	}
	m.orgs[org.ID] = org
	memView(s).record(func() { m.orgs[org.ID] = prev })
	return nil
}

// roles

type memRoles memView

func (s memRoles) Create(_ context.Context, role Role) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[role.OrgID]; !ok {
		return fmt.Errorf("%w: organization %s", ErrNotFound, role.OrgID)
	}
	if _, ok := m.roles[role.ID]; ok {
		return fmt.Errorf("%w: role id exists", ErrConflict)
	}
	for _, r := range m.roles {
		if r.OrgID == role.OrgID && r.Name == role.Name {
			return fmt.Errorf("%w: role %s exists", ErrConflict, role.Name)
		}
	}
	m.roles[role.ID] = role
	memView(s).stamp(role.ID)
	memView(s).record(func() { delete(m.roles, role.ID) })
	return nil
}

func (s memRoles) FindByName(_ context.Context, orgID, name string) (Role, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, r := range s.m.roles {
		if r.OrgID == orgID && r.Name == name {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("%w: role %s", ErrNotFound, name)
}

// users

type memUsers memView

func (s memUsers) Create(_ context.Context, user User) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[user.OrgID]; !ok {
		return fmt.Errorf("%w: organization %s", ErrNotFound, user.OrgID)
	}
	role, ok := m.roles[user.RoleID]
	if !ok || role.OrgID != user.OrgID {
		return fmt.Errorf("%w: role %s in organization %s", ErrNotFound, user.RoleID, user.OrgID)
	}
	if _, ok := m.users[user.ID]; ok {
		return fmt.Errorf("%w: user id exists", ErrConflict)
	}
	for _, u := range m.users {
		if u.OrgID == user.OrgID && u.Email == user.Email {
			return fmt.Errorf("%w: email exists in organization", ErrConflict)
		}
	}
	m.users[user.ID] = user
	memView(s).stamp(user.ID)
	memView(s).record(func() { delete(m.users, user.ID) })
	return nil
}

func (memUsers) LockEmail(context.Context, string) error { return nil }

func (s memUsers) Get(_ context.Context, id string) (User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, nil
}

func (s memUsers) FindByEmail(_ context.Context, email string) ([]User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, u := range m.users {
		if u.Email == email {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return m.olderFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s memUsers) FindInOrg(_ context.Context, orgID, email string) (User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.OrgID == orgID && u.Email == email {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %s in organization %s", ErrNotFound, email, orgID)
}

// jobs

type memJobs memView

func (s memJobs) checkSlug(job Job) error {
	if job.Slug == "" {
		return nil
	}
	for id, j := range s.m.jobs {
		if id != job.ID && j.Slug == job.Slug {
			return fmt.Errorf("%w: job slug %s exists", ErrConflict, job.Slug)
		}
	}
	return nil
}

func (s memJobs) Create(_ context.Context, job Job) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[job.OrgID]; !ok {
		return fmt.Errorf("%w: organization %s", ErrNotFound, job.OrgID)
	}
	if _, ok := m.jobs[job.ID]; ok {
		return fmt.Errorf("%w: job id exists", ErrConflict)
	}
	if err := s.checkSlug(job); err != nil {
		return err
	}
	m.jobs[job.ID] = job
	memView(s).stamp(job.ID)
	memView(s).record(func() { delete(m.jobs, job.ID) })
	return nil
}

func (s memJobs) Get(_ context.Context, id string) (Job, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	j, ok := s.m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return j, nil
}

func (s memJobs) GetForUpdate(ctx context.Context, id string) (Job, error) {
	return s.Get(ctx, id)
}

func (s memJobs) Update(_ context.Context, job Job) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.jobs[job.ID]
	if !ok {
		return fmt.Errorf("%w: job %s", ErrNotFound, job.ID)
	}
	if err := s.checkSlug(job); err != nil {
		return err
	}
	m.jobs[job.ID] = job
	memView(s).record(func() { m.jobs[job.ID] = prev })
	return nil
}

// Delete removes the job together with its applications.
func (s memJobs) Delete(_ context.Context, id string) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	delete(m.jobs, id)
	memView(s).record(func() { m.jobs[id] = prev })
	for appID, a := range m.apps {
		if a.JobID == id {
			delete(m.apps, appID)
			memView(s).record(func() { m.apps[appID] = a })
		}
	}
	return nil
}

func (s memJobs) ListByOrg(_ context.Context, orgID string, offset, limit int) ([]Job, int, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Job
	for _, j := range m.jobs {
		if j.OrgID == orgID {
			all = append(all, j)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return m.newerFirst(all[i].CreatedAt, all[j].CreatedAt, all[i].ID, all[j].ID)
	})
	return window(all, offset, limit), len(all), nil
}

func (s memJobs) Search(_ context.Context, orgID string, f AnalyticsFilter) ([]Job, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Job{}
	for _, j := range m.jobs {
		if j.OrgID != orgID ||
			!containsFold(j.Title, f.TitleContains) ||
			!containsFold(j.JobType, f.JobType) ||
			!containsFold(j.WorkPolicy, f.WorkPolicy) ||
			!containsFold(j.Location, f.Location) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// applications

type memApps memView

func (s memApps) Create(_ context.Context, app Application) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[app.UserID]; !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, app.UserID)
	}
	job, ok := m.jobs[app.JobID]
	if !ok {
		return fmt.Errorf("%w: job %s", ErrNotFound, app.JobID)
	}
	if job.OrgID != app.OrgID {
		return fmt.Errorf("%w: application organization differs from job", ErrInvalidInput)
	}
	if _, ok := m.apps[app.ID]; ok {
		return fmt.Errorf("%w: application id exists", ErrConflict)
	}
	for _, a := range m.apps {
		if a.UserID == app.UserID && a.JobID == app.JobID {
			return fmt.Errorf("%w: application exists for user and job", ErrConflict)
		}
	}
	m.apps[app.ID] = app
	memView(s).stamp(app.ID)
	memView(s).record(func() { delete(m.apps, app.ID) })
	return nil
}

func (s memApps) Get(_ context.Context, id string) (Application, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	a, ok := s.m.apps[id]
	if !ok {
		return Application{}, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	return a, nil
}

func (s memApps) FindByUserAndJob(_ context.Context, userID, jobID string) (Application, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, a := range s.m.apps {
		if a.UserID == userID && a.JobID == jobID {
			return a, nil
		}
	}
	return Application{}, fmt.Errorf("%w: application for user %s and job %s", ErrNotFound, userID, jobID)
}

func (s memApps) UpdateStatus(_ context.Context, id string, status ApplicationStatus, at time.Time) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	next := prev
	next.Status = status
	next.UpdatedAt = at
	m.apps[id] = next
	memView(s).record(func() { m.apps[id] = prev })
	return nil
}

func (s memApps) ListByOrg(_ context.Context, orgID, userID string, offset, limit int) ([]Application, int, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Application
	for _, a := range m.apps {
		if a.OrgID == orgID && (userID == "" || a.UserID == userID) {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return m.newerFirst(all[i].CreatedAt, all[j].CreatedAt, all[i].ID, all[j].ID)
	})
	return window(all, offset, limit), len(all), nil
}

func (s memApps) ListForJobs(_ context.Context, jobIDs []string, r DateRange) ([]Application, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		want[id] = true
	}
	out := []Application{}
	for _, a := range m.apps {
		if want[a.JobID] && r.Contains(a.CreatedAt) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return m.olderFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}
