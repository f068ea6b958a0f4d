package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hirehub.dev/internal/board"
)

type appStore struct{ q querier }

const appColumns = `id, user_id, org_id, job_id, status, created_at, updated_at`

func scanApplication(row rowScanner) (board.Application, error) {
	var (
		a      board.Application
		status string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.OrgID, &a.JobID, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return board.Application{}, err
	}
	a.Status = board.ApplicationStatus(status)
	return a, nil
}

func scanApplications(rows *sql.Rows) ([]board.Application, error) {
	defer rows.Close()
	result := []board.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create relies on unique (user_id, job_id) for the authoritative conflict.
func (s appStore) Create(ctx context.Context, a board.Application) error {
	_, err := s.q.ExecContext(ctx, `
		insert into applications (`+appColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.UserID, a.OrgID, a.JobID, string(a.Status), a.CreatedAt, a.UpdatedAt)
	return mapError(err, "create application")
}

func (s appStore) Get(ctx context.Context, id string) (board.Application, error) {
	a, err := scanApplication(s.q.QueryRowContext(ctx, `select `+appColumns+` from applications where id = $1`, id))
	if err != nil {
		return board.Application{}, mapError(err, "application "+id)
	}
	return a, nil
}

func (s appStore) FindByUserAndJob(ctx context.Context, userID, jobID string) (board.Application, error) {
	a, err := scanApplication(s.q.QueryRowContext(ctx,
		`select `+appColumns+` from applications where user_id = $1 and job_id = $2`, userID, jobID))
	if err != nil {
		return board.Application{}, mapError(err, "application")
	}
	return a, nil
}

func (s appStore) UpdateStatus(ctx context.Context, id string, status board.ApplicationStatus, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`update applications set status = $2, updated_at = $3 where id = $1`, id, string(status), at)
	return mapError(requireAffected(res, err), "application "+id)
}

func (s appStore) ListByOrg(ctx context.Context, orgID, userID string, offset, limit int) ([]board.Application, int, error) {
	where := "org_id = $1"
	args := []any{orgID}
	if userID != "" {
		where += " and user_id = $2"
		args = append(args, userID)
	}
	var total int
	if err := s.q.QueryRowContext(ctx, `select count(*) from applications where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(`
		select %s
		from applications
		where %s
		order by created_at desc, id desc
		limit $%d offset $%d
	`, appColumns, where, n+1, n+2), append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s appStore) ListForJobs(ctx context.Context, jobIDs []string, r board.DateRange) ([]board.Application, error) {
	if len(jobIDs) == 0 {
		return []board.Application{}, nil
	}
	// Postgres caps a statement at 65535 bind parameters.
	args := []any{jobIDs}
	where := []string{"job_id = any($1)"}
	if !r.Start.IsZero() {
		args = append(args, r.Start)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !r.End.IsZero() {
		args = append(args, r.End)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	rows, err := s.q.QueryContext(ctx, `
		select `+appColumns+`
		from applications
		where `+strings.Join(where, " and ")+`
		order by created_at, id
	`, args...)
	if err != nil {
		return nil, err
	}
	return scanApplications(rows)
}
