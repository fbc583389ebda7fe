package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store persists accounts. Email uniqueness is enforced by the store itself.
type Store interface {
	// Create inserts a new account, assigning ID and timestamps when unset.
	Create(ctx context.Context, a *Account) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)

	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Account, error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*Account, error)

	// SetResetToken overwrites any pending reset for the account.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	// ClearResetToken drops the pending reset if tokenHash is still the pending one.
	ClearResetToken(ctx context.Context, id uuid.UUID, tokenHash string) error
	// CompleteReset stores the new password hash and clears the pending reset
	// in one write, only if tokenHash is still the pending one. Returns
	// ErrNotFound otherwise.
	CompleteReset(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string) error
	// ClearExpiredResetTokens clears every pending reset that expired before now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
