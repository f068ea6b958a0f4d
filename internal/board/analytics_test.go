package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeJobsKeepsJobsWithoutApplicationsInRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "Acme")
	owner := identityOf(a.User)

	backend, err := f.svc.CreateJob(ctx, owner, JobInput{Title: "Backend Engineer", JobType: "Full-Time", WorkPolicy: "Remote", Location: "Berlin"})
	require.NoError(t, err)
	frontend, err := f.svc.CreateJob(ctx, owner, JobInput{Title: "Frontend Engineer", JobType: "Contract", WorkPolicy: "Onsite", Location: "Paris"})
	require.NoError(t, err)
	_, err = f.svc.CreateJob(ctx, owner, JobInput{Title: "Designer", JobType: "Full-Time"})
	require.NoError(t, err)

	var apps []Application
	for i := 0; i < 3; i++ {
		c, err := f.svc.CreateCandidate(ctx, CandidateInput{Name: "Cand", Email: "c" + string(rune('a'+i)) + "@x.com", Password: "secret1", OrgID: a.Organization.ID})
		require.NoError(t, err)
		app, err := f.svc.CreateApplication(ctx, identityOf(c), ApplicationInput{UserID: c.ID, JobID: backend.ID})
		require.NoError(t, err)
		apps = append(apps, app)
	}

	r := DateRange{Start: apps[1].CreatedAt, End: apps[2].CreatedAt}
	out, err := f.svc.AnalyzeJobs(ctx, owner, a.Organization.ID, AnalyticsFilter{TitleContains: "engineer"}, r)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[string]JobSummary{}
	for _, s := range out {
		byID[s.JobID] = s
	}
	be := byID[backend.ID]
	require.Equal(t, 2, be.TotalApplications)
	require.Len(t, be.Applications, 2)
	require.Equal(t, apps[1].ID, be.Applications[0].ID)
	require.Equal(t, StatusPending, be.Applications[0].Status)
	require.Equal(t, "Remote", be.WorkPolicy)

	fe, ok := byID[frontend.ID]
	require.True(t, ok, "job with no applications in range must still be reported")
	require.Equal(t, 0, fe.TotalApplications)
	require.NotNil(t, fe.Applications)
	require.Empty(t, fe.Applications)
}

func TestAnalyzeJobsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "Acme")
	b := f.register(t, "b@x.com", "Globex")
	owner := identityOf(a.User)

	_, err := f.svc.CreateJob(ctx, owner, JobInput{Title: "Go Engineer", JobType: "Full-Time", WorkPolicy: "Hybrid", Location: "Berlin"})
	require.NoError(t, err)
	_, err = f.svc.CreateJob(ctx, owner, JobInput{Title: "Go Intern", JobType: "Internship", WorkPolicy: "Remote", Location: "Munich"})
	require.NoError(t, err)
	_, err = f.svc.CreateJob(ctx, identityOf(b.User), JobInput{Title: "Go Engineer", JobType: "Full-Time"})
	require.NoError(t, err)

	out, err := f.svc.AnalyzeJobs(ctx, owner, a.Organization.ID, AnalyticsFilter{JobType: "full", Location: "BER"}, DateRange{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Go Engineer", out[0].Title)

	out, err = f.svc.AnalyzeJobs(ctx, owner, a.Organization.ID, AnalyticsFilter{TitleContains: "go"}, DateRange{})
	require.NoError(t, err)
	require.Len(t, out, 2, "other organizations' jobs are never included")

	out, err = f.svc.AnalyzeJobs(ctx, owner, a.Organization.ID, AnalyticsFilter{WorkPolicy: "onsite"}, DateRange{})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)

	_, err = f.svc.AnalyzeJobs(ctx, identityOf(b.User), a.Organization.ID, AnalyticsFilter{}, DateRange{})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.AnalyzeJobs(ctx, owner, "missing", AnalyticsFilter{}, DateRange{})
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Now()
	_, err = f.svc.AnalyzeJobs(ctx, owner, a.Organization.ID, AnalyticsFilter{}, DateRange{Start: now, End: now.Add(-time.Hour)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFieldStates(t *testing.T) {
	var absent Field[string]
	require.False(t, absent.Present())
	require.False(t, absent.Cleared())

	set := Set("x")
	v, ok := set.Value()
	require.True(t, ok)
	require.Equal(t, "x", v)
	require.True(t, set.Present())

	cleared := Clear[string]()
	require.True(t, cleared.Present())
	require.True(t, cleared.Cleared())
	_, ok = cleared.Value()
	require.False(t, ok)

	dst := "keep"
	absent.apply(&dst)
	require.Equal(t, "keep", dst)
	cleared.apply(&dst)
	require.Empty(t, dst)
	set.apply(&dst)
	require.Equal(t, "x", dst)

	empty := ""
	require.True(t, StringField(&empty).Cleared())
	require.False(t, StringField(nil).Present())
}

func TestParseClosedAt(t *testing.T) {
	field, err := ParseClosedAt(nil)
	require.NoError(t, err)
	require.False(t, field.Present())

	blank := "  "
	field, err = ParseClosedAt(&blank)
	require.NoError(t, err)
	require.True(t, field.Cleared())

	day := "2025-03-04"
	field, err = ParseClosedAt(&day)
	require.NoError(t, err)
	got, ok := field.Value()
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), got)

	bad := "next tuesday"
	_, err = ParseClosedAt(&bad)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	require.Equal(t, Page{Number: 1, Limit: 10}, p)
	require.Equal(t, 0, p.Offset())
	require.Equal(t, 40, Page{Number: 3, Limit: 20}.Offset())
	require.Equal(t, 100, Page{Limit: 1000}.Normalize().Limit)
}

func TestInMemoryRollsBackFailedTransaction(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	err := store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Organizations().Create(ctx, Organization{ID: "o1", Name: "Temp"}); err != nil {
			return err
		}
		return tx.Roles().Create(ctx, Role{ID: "r1", OrgID: "missing", Name: RoleAdmin})
	})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Organizations().Get(ctx, "o1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Organizations().FindByName(ctx, "temp")
	require.ErrorIs(t, err, ErrNotFound)
}
