package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/storefront-api/internal/database"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewPostgresStore(database.NewBunDB(sqlDB)), mock
}

func TestPostgresStoreGetByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM "accounts" AS "a" WHERE \(email = 'nobody@example.com'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := store.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetByIDWrapsDriverError(t *testing.T) {
	store, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT .* FROM "accounts"`).WillReturnError(boom)

	_, err := store.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "accounts"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"accounts_email_key\""})

	_, err := store.Create(context.Background(), &Account{Email: "alice@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCompleteResetStaleToken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "accounts" AS "a" SET .*reset_token_hash = NULL.* WHERE .*reset_token_hash = 'stale'`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.CompleteReset(context.Background(), uuid.New(), "stale", "newhash")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSetResetToken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "accounts" AS "a" SET reset_token_hash = 'abc'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetResetToken(context.Background(), uuid.New(), "abc", time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClearExpiredResetTokens(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "accounts" AS "a" SET .* WHERE \(reset_token_expires_at < `).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.ClearExpiredResetTokens(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
