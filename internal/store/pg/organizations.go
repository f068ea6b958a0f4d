package pg

import (
	"context"
	"database/sql"
	"fmt"

	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
)

type orgStore struct{ q querier }

const orgColumns = `id, name, theme_color, logo_url, description, website, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (board.Organization, error) {
	var org board.Organization
	var theme, logo, description, website sql.NullString
	err := row.Scan(&org.ID, &org.Name, &theme, &logo, &description, &website, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return board.Organization{}, err
	}
	org.ThemeColor = theme.String
	org.LogoURL = logo.String
	org.Description = description.String
	org.Website = website.String
	return org, nil
}

// Create inserts unless the id or lower(name) is taken. The insert never
// aborts the surrounding transaction; a skipped row is reported as ErrConflict.
func (s orgStore) Create(ctx context.Context, org board.Organization) error {
	res, err := s.q.ExecContext(ctx, `
		insert into organizations (id, name, theme_color, logo_url, description, website, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		on conflict do nothing
	`, org.ID, org.Name, nullIfEmpty(org.ThemeColor), nullIfEmpty(org.LogoURL),
		nullIfEmpty(org.Description), nullIfEmpty(org.Website), org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return mapError(err, "create organization")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: organization %q exists", auth.ErrConflict, org.Name)
	}
	return nil
}

func (s orgStore) Get(ctx context.Context, id string) (board.Organization, error) {
	row := s.q.QueryRowContext(ctx, `select `+orgColumns+` from organizations where id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		return board.Organization{}, mapError(err, "organization "+id)
	}
	return org, nil
}

// GetForUpdate reads the organization and holds its row lock until the
// transaction ends.
func (s orgStore) GetForUpdate(ctx context.Context, id string) (board.Organization, error) {
	row := s.q.QueryRowContext(ctx, `select `+orgColumns+` from organizations where id = $1 for update`, id)
	org, err := scanOrganization(row)
	if err != nil {
		return board.Organization{}, mapError(err, "organization "+id)
	}
	return org, nil
}

func (s orgStore) FindByName(ctx context.Context, name string) (board.Organization, error) {
	row := s.q.QueryRowContext(ctx, `select `+orgColumns+` from organizations where lower(name) = lower($1)`, name)
	org, err := scanOrganization(row)
	if err != nil {
		return board.Organization{}, mapError(err, "organization named "+name)
	}
	return org, nil
}

func (s orgStore) List(ctx context.Context) ([]board.Organization, error) {
	rows, err := s.q.QueryContext(ctx, `select `+orgColumns+` from organizations order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []board.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s orgStore) Update(ctx context.Context, org board.Organization) error {
	res, err := s.q.ExecContext(ctx, `
		update organizations
		set name = $2, theme_color = $3, logo_url = $4, description = $5, website = $6, updated_at = $7
		where id = $1
	`, org.ID, org.Name, nullIfEmpty(org.ThemeColor), nullIfEmpty(org.LogoURL),
		nullIfEmpty(org.Description), nullIfEmpty(org.Website), org.UpdatedAt)
	return mapError(requireAffected(res, err), "organization "+org.ID)
}
