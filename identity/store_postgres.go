package identity

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("identity not found")

var _ Repo = (*PostgresRepo)(nil)

// PostgresRepo reads identities from the users table owned by the
// user-management service. It never creates the table: provisioning and
// deletion live on that side, so there is no EnsureSchema here.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.get(ctx,
		`select id, email, password_hash, role, active, created_at, coalesce(last_login, created_at)
		 from users where id = $1`, id)
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.get(ctx,
		`select id, email, password_hash, role, active, created_at, coalesce(last_login, created_at)
		 from users where lower(email) = lower($1)`, email)
}

func (r *PostgresRepo) get(ctx context.Context, query, arg string) (*Identity, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var ident Identity
	var rawRole string
	err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &rawRole,
		&ident.Active, &ident.CreatedAt, &ident.LastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "[PostgresRepo.get] Scan")
	}

	role, err := ParseRole(rawRole)
	if err != nil {
		return nil, errors.Wrapf(err, "[PostgresRepo.get] identity %s", ident.ID)
	}
	ident.Role = role
	return &ident, nil
}

func (r *PostgresRepo) SetPasswordHash(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`update users set password_hash = $2 where id = $1`, id, hash)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetPasswordHash] ExecContext")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetPasswordHash] RowsAffected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetLastLogin(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`update users set last_login = now() where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetLastLogin] ExecContext")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetLastLogin] RowsAffected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
