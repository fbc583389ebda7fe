package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/storefront-api/internal/database"
)

const pgUniqueViolation = "23505"

// PostgresStore handles account persistence in Postgres through bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new account into the database
func (r *PostgresStore) Create(ctx context.Context, a *Account) (*Account, error) {
	row := mapModelToDBAccount(a)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Role == "" {
		row.Role = string(RoleStandard)
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapDBAccountToModel(row), nil
}

// GetByID retrieves an account by ID
func (r *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves an account by email
func (r *PostgresStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByResetTokenHash retrieves the account holding a pending reset with this hash
func (r *PostgresStore) GetByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	return r.getOne(ctx, "reset_token_hash = ?", tokenHash)
}

func (r *PostgresStore) getOne(ctx context.Context, where string, arg any) (*Account, error) {
	row := new(database.Account)
	err := r.db.NewSelect().
		Model(row).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return mapDBAccountToModel(row), nil
}

// List returns all accounts, oldest first
func (r *PostgresStore) List(ctx context.Context) ([]*Account, error) {
	var rows []database.Account
	err := r.db.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	out := make([]*Account, 0, len(rows))
	for i := range rows {
		out = append(out, mapDBAccountToModel(&rows[i]))
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of update
func (r *PostgresStore) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Account, error) {
	if update.Empty() {
		return r.GetByID(ctx, id)
	}

	q := r.db.NewUpdate().Model((*database.Account)(nil))
	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
	}
	if update.Address != nil {
		q = q.Set("address = ?", *update.Address)
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
	}
	if update.PasswordHash != nil {
		q = q.Set("password_hash = ?", *update.PasswordHash)
	}

	if err := r.execByID(ctx, q.Set("updated_at = NOW()"), id, "update profile"); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SetBlocked sets the blocked flag
func (r *PostgresStore) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*Account, error) {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("blocked = ?", blocked).
		Set("updated_at = NOW()")

	if err := r.execByID(ctx, q, id, "set blocked"); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SetResetToken stores a reset token hash and its expiry, replacing any pending one
func (r *PostgresStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("reset_token_hash = ?", tokenHash).
		Set("reset_token_expires_at = ?", expiresAt).
		Set("updated_at = NOW()")

	return r.execByID(ctx, q, id, "store reset token")
}

// ClearResetToken drops the pending reset if it still carries tokenHash
func (r *PostgresStore) ClearResetToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("reset_token_hash = NULL").
		Set("reset_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("reset_token_hash = ?", tokenHash)

	return r.execByID(ctx, q, id, "clear reset token")
}

// CompleteReset writes the new password hash and clears the reset pair in a single statement
func (r *PostgresStore) CompleteReset(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string) error {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token_hash = NULL").
		Set("reset_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("reset_token_hash = ?", tokenHash)

	return r.execByID(ctx, q, id, "complete password reset")
}

// ClearExpiredResetTokens removes reset pairs whose expiry has passed
func (r *PostgresStore) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("reset_token_hash = NULL").
		Set("reset_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("reset_token_expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *PostgresStore) execByID(ctx context.Context, q *bun.UpdateQuery, id uuid.UUID, op string) error {
	result, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

func mapModelToDBAccount(a *Account) *database.Account {
	return &database.Account{
		ID:                  a.ID,
		Name:                a.Name,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		Role:                string(a.Role),
		Blocked:             a.Blocked,
		Address:             a.Address,
		Phone:               a.Phone,
		ResetTokenHash:      a.ResetTokenHash,
		ResetTokenExpiresAt: a.ResetTokenExpiresAt,
	}
}

// mapDBAccountToModel converts database model to domain model
func mapDBAccountToModel(row *database.Account) *Account {
	return &Account{
		ID:                  row.ID,
		Name:                row.Name,
		Email:               row.Email,
		PasswordHash:        row.PasswordHash,
		Role:                Role(row.Role),
		Blocked:             row.Blocked,
		Address:             row.Address,
		Phone:               row.Phone,
		ResetTokenHash:      row.ResetTokenHash,
		ResetTokenExpiresAt: row.ResetTokenExpiresAt,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}
