package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hirehub.dev/internal/board"
)

type jobStore struct{ q querier }

const jobColumns = `id, org_id, title, work_policy, location, department, employment_type,
	experience_level, job_type, salary_range, job_slug, job_description, created_at, closed_at`

func scanJob(row rowScanner) (board.Job, error) {
	var j board.Job
	var workPolicy, location, department, employmentType sql.NullString
	var experience, jobType, salary, slug, description sql.NullString
	var closedAt sql.NullTime
	err := row.Scan(&j.ID, &j.OrgID, &j.Title, &workPolicy, &location, &department, &employmentType,
		&experience, &jobType, &salary, &slug, &description, &j.CreatedAt, &closedAt)
	if err != nil {
		return board.Job{}, err
	}
	j.WorkPolicy = workPolicy.String
	j.Location = location.String
	j.Department = department.String
	j.EmploymentType = employmentType.String
	j.ExperienceLevel = experience.String
	j.JobType = jobType.String
	j.SalaryRange = salary.String
	j.Slug = slug.String
	j.Description = description.String
	j.ClosedAt = timePtr(closedAt)
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]board.Job, error) {
	defer rows.Close()
	result := []board.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s jobStore) Create(ctx context.Context, j board.Job) error {
	_, err := s.q.ExecContext(ctx, `
		insert into jobs (`+jobColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, j.ID, j.OrgID, j.Title, nullIfEmpty(j.WorkPolicy), nullIfEmpty(j.Location), nullIfEmpty(j.Department),
		nullIfEmpty(j.EmploymentType), nullIfEmpty(j.ExperienceLevel), nullIfEmpty(j.JobType),
		nullIfEmpty(j.SalaryRange), nullIfEmpty(j.Slug), nullIfEmpty(j.Description), j.CreatedAt, nullTime(j.ClosedAt))
	return mapError(err, "create job")
}

func (s jobStore) Get(ctx context.Context, id string) (board.Job, error) {
	j, err := scanJob(s.q.QueryRowContext(ctx, `select `+jobColumns+` from jobs where id = $1`, id))
	if err != nil {
		return board.Job{}, mapError(err, "job "+id)
	}
	return j, nil
}

// GetForUpdate reads the job and holds its row lock until the transaction ends.
func (s jobStore) GetForUpdate(ctx context.Context, id string) (board.Job, error) {
	j, err := scanJob(s.q.QueryRowContext(ctx, `select `+jobColumns+` from jobs where id = $1 for update`, id))
	if err != nil {
		return board.Job{}, mapError(err, "job "+id)
	}
	return j, nil
}

func (s jobStore) Update(ctx context.Context, j board.Job) error {
	res, err := s.q.ExecContext(ctx, `
		update jobs
		set title = $2, work_policy = $3, location = $4, department = $5, employment_type = $6,
			experience_level = $7, job_type = $8, salary_range = $9, job_slug = $10,
			job_description = $11, closed_at = $12
		where id = $1
	`, j.ID, j.Title, nullIfEmpty(j.WorkPolicy), nullIfEmpty(j.Location), nullIfEmpty(j.Department),
		nullIfEmpty(j.EmploymentType), nullIfEmpty(j.ExperienceLevel), nullIfEmpty(j.JobType),
		nullIfEmpty(j.SalaryRange), nullIfEmpty(j.Slug), nullIfEmpty(j.Description), nullTime(j.ClosedAt))
	return mapError(requireAffected(res, err), "job "+j.ID)
}

// Delete removes the job; applications go with it through the cascading key.
func (s jobStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `delete from jobs where id = $1`, id)
	return mapError(requireAffected(res, err), "job "+id)
}

func (s jobStore) ListByOrg(ctx context.Context, orgID string, offset, limit int) ([]board.Job, int, error) {
	var total int
	if err := s.q.QueryRowContext(ctx, `select count(*) from jobs where org_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.q.QueryContext(ctx, `
		select `+jobColumns+`
		from jobs
		where org_id = $1
		order by created_at desc, id desc
		limit $2 offset $3
	`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s jobStore) Search(ctx context.Context, orgID string, f board.AnalyticsFilter) ([]board.Job, error) {
	var (
		where = []string{"org_id = $1"}
		args  = []any{orgID}
	)
	for _, c := range []struct{ column, value string }{
		{"title", f.TitleContains},
		{"job_type", f.JobType},
		{"work_policy", f.WorkPolicy},
		{"location", f.Location},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, escapeLike(c.value))
		where = append(where, fmt.Sprintf(`%s ilike $%d escape '\'`, c.column, len(args)))
	}
	rows, err := s.q.QueryContext(ctx, `
		select `+jobColumns+`
		from jobs
		where `+strings.Join(where, " and ")+`
		order by created_at desc, id desc
	`, args...)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}
