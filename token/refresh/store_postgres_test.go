package refresh_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maintops/go-maint-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

func successorToken() *refresh.Token {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &refresh.Token{
		Value:      "successor-value",
		IdentityID: "ident-42",
		IssuedAt:   now,
		ExpiresAt:  now.Add(7 * 24 * time.Hour),
	}
}

func TestPostgresStore_RotateSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`update refresh_tokens set rotated = true`)).
		WithArgs("old-value").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`insert into refresh_tokens`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := refresh.NewPostgresStore(db)
	err = store.Rotate(context.Background(), "old-value", successorToken())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RotateAlreadyRotated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`update refresh_tokens set rotated = true`)).
		WithArgs("old-value").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`select exists`)).
		WithArgs("old-value").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	store := refresh.NewPostgresStore(db)
	err = store.Rotate(context.Background(), "old-value", successorToken())
	require.ErrorIs(t, err, refresh.ErrReused)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RotateUnknownValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`update refresh_tokens set rotated = true`)).
		WithArgs("old-value").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`select exists`)).
		WithArgs("old-value").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	store := refresh.NewPostgresStore(db)
	err = store.Rotate(context.Background(), "old-value", successorToken())
	require.ErrorIs(t, err, refresh.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`select value, identity_id`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value", "identity_id", "issued_at", "expires_at", "rotated", "revoked"}))

	store := refresh.NewPostgresStore(db)
	_, err = store.Find(context.Background(), "missing")
	require.ErrorIs(t, err, refresh.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RevokeAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`update refresh_tokens set revoked = true`)).
		WithArgs("ident-42").
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := refresh.NewPostgresStore(db)
	require.NoError(t, store.RevokeAll(context.Background(), "ident-42"))
	require.NoError(t, mock.ExpectationsWereMet())
}
