package refresh

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists refresh-token records in PostgreSQL. Rotation is a
// single transaction around a conditional update, so exactly one of any
// number of concurrent rotations of the same value can succeed, across
// service instances.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const schemaSQL = `
create table if not exists refresh_tokens (
    value       text primary key,
    identity_id text not null,
    issued_at   timestamptz not null,
    expires_at  timestamptz not null,
    rotated     boolean not null default false,
    revoked     boolean not null default false
);
create index if not exists ix_refresh_tokens_identity on refresh_tokens (identity_id, revoked, rotated);
`

// EnsureSchema creates the refresh_tokens table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "[PostgresStore.EnsureSchema] ExecContext")
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, token *Token) error {
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens (value, identity_id, issued_at, expires_at, rotated, revoked)
		 values ($1, $2, $3, $4, $5, $6)`,
		token.Value, token.IdentityID, token.IssuedAt, token.ExpiresAt, token.Rotated, token.Revoked,
	)
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.Insert] ExecContext")
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, value string) (*Token, error) {
	row := s.db.QueryRowContext(ctx,
		`select value, identity_id, issued_at, expires_at, rotated, revoked
		 from refresh_tokens where value = $1`, value)

	var t Token
	err := row.Scan(&t.Value, &t.IdentityID, &t.IssuedAt, &t.ExpiresAt, &t.Rotated, &t.Revoked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "[PostgresStore.Find] Scan")
	}
	return &t, nil
}

func (s *PostgresStore) Rotate(ctx context.Context, oldValue string, successor *Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.Rotate] BeginTx")
	}
	defer func() { _ = tx.Rollback() }()

	// Compare-and-swap: only a live record rotates. Zero affected rows means
	// a concurrent rotation (or revocation) already claimed this value.
	res, err := tx.ExecContext(ctx,
		`update refresh_tokens set rotated = true
		 where value = $1 and rotated = false and revoked = false`, oldValue)
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.Rotate] update")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.Rotate] RowsAffected")
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`select exists (select 1 from refresh_tokens where value = $1)`, oldValue,
		).Scan(&exists); err != nil {
			return errors.Wrap(err, "[PostgresStore.Rotate] exists check")
		}
		if !exists {
			return ErrNotFound
		}
		return ErrReused
	}

	if _, err := tx.ExecContext(ctx,
		`insert into refresh_tokens (value, identity_id, issued_at, expires_at, rotated, revoked)
		 values ($1, $2, $3, $4, false, false)`,
		successor.Value, successor.IdentityID, successor.IssuedAt, successor.ExpiresAt,
	); err != nil {
		return errors.Wrap(err, "[PostgresStore.Rotate] insert successor")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[PostgresStore.Rotate] Commit")
	}
	return nil
}

func (s *PostgresStore) RevokeAll(ctx context.Context, identityID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked = true
		 where identity_id = $1 and revoked = false`, identityID)
	if err != nil {
		return errors.Wrap(err, "[PostgresStore.RevokeAll] ExecContext")
	}
	return nil
}

// DeleteExpired removes records whose expiry has passed, as retention
// cleanup. Rotated and revoked records stay until they expire so reuse of
// them is still detectable.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from refresh_tokens where expires_at <= now()`)
	if err != nil {
		return 0, errors.Wrap(err, "[PostgresStore.DeleteExpired] ExecContext")
	}
	return res.RowsAffected()
}
