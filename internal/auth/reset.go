package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/storefront-api/internal/account"
)

// ResetTokenTTL is the fixed lifetime of a password reset token.
const ResetTokenTTL = time.Hour

// ResetManager runs the password reset token lifecycle. Only the sha256 hash
// of a raw token is ever stored; the raw value leaves through the reset email.
type ResetManager struct {
	store  account.Store
	hasher *PasswordHasher
	clock  Clock
}

func NewResetManager(store account.Store, hasher *PasswordHasher, clock Clock) *ResetManager {
	return &ResetManager{store: store, hasher: hasher, clock: clock}
}

// Request mints a reset token for the account, replacing any pending one,
// and returns the raw token.
func (m *ResetManager) Request(ctx context.Context, accountID uuid.UUID) (string, error) {
	raw, err := generateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := m.clock.Now().Add(ResetTokenTTL)
	if err := m.store.SetResetToken(ctx, accountID, hashToken(raw), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return raw, nil
}

// Consume redeems a raw reset token, replacing the account's password with
// newPassword and clearing the pending reset in the same write. Unknown,
// superseded, used and expired tokens all yield ErrInvalidOrExpiredToken.
func (m *ResetManager) Consume(ctx context.Context, raw, newPassword string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrInvalidOrExpiredToken
	}
	tokenHash := hashToken(raw)

	acc, err := m.store.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return uuid.Nil, ErrInvalidOrExpiredToken
		}
		return uuid.Nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	if acc.ResetTokenExpiresAt == nil || m.clock.Now().After(*acc.ResetTokenExpiresAt) {
		if err := m.store.ClearResetToken(ctx, acc.ID, tokenHash); err != nil && !errors.Is(err, account.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("failed to clear expired reset token: %w", err)
		}
		return uuid.Nil, ErrInvalidOrExpiredToken
	}

	passwordHash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := m.store.CompleteReset(ctx, acc.ID, tokenHash, passwordHash); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// superseded or redeemed between lookup and write
			return uuid.Nil, ErrInvalidOrExpiredToken
		}
		return uuid.Nil, fmt.Errorf("failed to complete password reset: %w", err)
	}

	return acc.ID, nil
}

// SweepExpired clears every reset that has expired by now.
func (m *ResetManager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.ClearExpiredResetTokens(ctx, m.clock.Now())
}

// generateRandomToken creates a cryptographically secure random token
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
