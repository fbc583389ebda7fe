package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/storefront-api/internal/account"
)

type resetFixture struct {
	manager *ResetManager
	store   *account.MemoryStore
	clock   *fakeClock
	hasher  *PasswordHasher
	account *account.Account
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	store := account.NewMemoryStore()
	clock := newFakeClock()
	hasher := NewPasswordHasher(testArgon2Params)

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	acc, err := store.Create(context.Background(), &account.Account{Name: "Alice", Email: "alice@example.com", PasswordHash: hash})
	require.NoError(t, err)

	return &resetFixture{
		manager: NewResetManager(store, hasher, clock),
		store:   store,
		clock:   clock,
		hasher:  hasher,
		account: acc,
	}
}

func (f *resetFixture) reload(t *testing.T) *account.Account {
	t.Helper()
	acc, err := f.store.GetByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	return acc
}

func TestResetRequestStoresOnlyHash(t *testing.T) {
	f := newResetFixture(t)

	raw, err := f.manager.Request(context.Background(), f.account.ID)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	acc := f.reload(t)
	require.True(t, acc.HasPendingReset())
	assert.NotEqual(t, raw, *acc.ResetTokenHash)
	assert.Equal(t, hashToken(raw), *acc.ResetTokenHash)
	assert.Equal(t, f.clock.Now().Add(ResetTokenTTL), *acc.ResetTokenExpiresAt)
}

func TestResetConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	raw, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	id, err := f.manager.Consume(ctx, raw, "newpw")
	require.NoError(t, err)
	assert.Equal(t, f.account.ID, id)

	acc := f.reload(t)
	assert.False(t, acc.HasPendingReset())
	assert.Nil(t, acc.ResetTokenHash)
	assert.Nil(t, acc.ResetTokenExpiresAt)
	assert.True(t, f.hasher.Verify("newpw", acc.PasswordHash))
	assert.False(t, f.hasher.Verify("pw1", acc.PasswordHash))

	_, err = f.manager.Consume(ctx, raw, "again")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestNewerResetSupersedesOlder(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	first, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)
	second, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = f.manager.Consume(ctx, first, "newpw")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	// the rejected attempt leaves the newer reset usable
	_, err = f.manager.Consume(ctx, second, "newpw")
	assert.NoError(t, err)
}

func TestExpiredResetIsRejectedAndCleared(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	raw, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	f.clock.Advance(ResetTokenTTL + time.Second)

	_, err = f.manager.Consume(ctx, raw, "newpw")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	acc := f.reload(t)
	assert.False(t, acc.HasPendingReset())
	assert.True(t, f.hasher.Verify("pw1", acc.PasswordHash))
}

func TestResetValidAtExpiryInstant(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	raw, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	f.clock.Advance(ResetTokenTTL)

	_, err = f.manager.Consume(ctx, raw, "newpw")
	assert.NoError(t, err)
}

func TestConsumeUnknownToken(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	_, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", hashToken("x")} {
		_, err := f.manager.Consume(ctx, raw, "newpw")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	}
	assert.True(t, f.reload(t).HasPendingReset())
}

func TestStoredHashIsNotUsableAsToken(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	_, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	_, err = f.manager.Consume(ctx, *f.reload(t).ResetTokenHash, "newpw")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	_, err := f.manager.Request(ctx, f.account.ID)
	require.NoError(t, err)

	cleared, err := f.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	f.clock.Advance(2 * ResetTokenTTL)

	cleared, err = f.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.False(t, f.reload(t).HasPendingReset())
}
