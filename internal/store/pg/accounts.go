package pg

import (
	"context"
	"fmt"

	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
)

type roleStore struct{ q querier }

// Create inserts unless (org_id, name) is taken; a skipped row is ErrConflict
// so concurrent provisioners re-fetch inside the same transaction.
func (s roleStore) Create(ctx context.Context, role board.Role) error {
	res, err := s.q.ExecContext(ctx, `
		insert into roles (id, org_id, name, access, created_at)
		values ($1, $2, $3, $4::jsonb, $5)
		on conflict (org_id, name) do nothing
	`, role.ID, role.OrgID, role.Name, role.Access.Encode(), role.CreatedAt)
	if err != nil {
		return mapError(err, "create role "+role.Name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: role %s exists", auth.ErrConflict, role.Name)
	}
	return nil
}

func (s roleStore) FindByName(ctx context.Context, orgID, name string) (board.Role, error) {
	var (
		role   board.Role
		access string
	)
	err := s.q.QueryRowContext(ctx, `
		select id, org_id, name, access::text, created_at
		from roles
		where org_id = $1 and name = $2
	`, orgID, name).Scan(&role.ID, &role.OrgID, &role.Name, &access, &role.CreatedAt)
	if err != nil {
		return board.Role{}, mapError(err, "role "+name)
	}
	role.Access, err = auth.DecodeAccess(access)
	if err != nil {
		return board.Role{}, fmt.Errorf("role %s in org %s: %w", name, orgID, err)
	}
	return role, nil
}

type userStore struct{ q querier }

const userColumns = `id, name, email, password_hash, org_id, role_id, created_at, updated_at`

func scanUser(row rowScanner) (board.User, error) {
	var u board.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.OrgID, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s userStore) Create(ctx context.Context, u board.User) error {
	_, err := s.q.ExecContext(ctx, `
		insert into users (id, name, email, password_hash, org_id, role_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.OrgID, u.RoleID, u.CreatedAt, u.UpdatedAt)
	return mapError(err, "create user")
}

func (s userStore) Get(ctx context.Context, id string) (board.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id))
	if err != nil {
		return board.User{}, mapError(err, "user "+id)
	}
	return u, nil
}

// LockEmail takes a transaction-scoped advisory lock keyed by email, so
// concurrent registrations of one address run one after the other.
func (s userStore) LockEmail(ctx context.Context, email string) error {
	_, err := s.q.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, email)
	return err
}

func (s userStore) FindByEmail(ctx context.Context, email string) ([]board.User, error) {
	rows, err := s.q.QueryContext(ctx, `select `+userColumns+` from users where email = $1 order by created_at, id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []board.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s userStore) FindInOrg(ctx context.Context, orgID, email string) (board.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`select `+userColumns+` from users where org_id = $1 and email = $2`, orgID, email))
	if err != nil {
		return board.User{}, mapError(err, "user "+email)
	}
	return u, nil
}
