package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/storefront-api/internal/account"
)

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, account.RoleStandard, created.Role)
	assert.False(t, created.Blocked)
	assert.NotEqual(t, "pw1", created.PasswordHash)

	result, err := f.svc.Login(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.Account.ID)

	id, err := f.tokens.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Other", "alice@example.com", "pw2")
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "alice@example.com", "nope")
	_, unknownEmail := f.svc.Login(ctx, "bob@example.com", "pw1")
	_, empty := f.svc.Login(ctx, "", "")

	for _, err := range []error{wrongPassword, unknownEmail, empty} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), err.Error())
	}
}

func TestBlockedAccountCannotLogin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	_, err = f.svc.SetBlocked(ctx, account.RoleAdmin, alice.ID, true)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice@example.com", "pw1")
	assert.ErrorIs(t, err, ErrAccountBlocked)

	// blocked is checked before the password
	_, err = f.svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAccountBlocked)

	_, err = f.svc.SetBlocked(ctx, account.RoleAdmin, alice.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice@example.com", "pw1")
	assert.NoError(t, err)
}

func TestAdminOperationsRequireAdminRole(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	_, err = f.svc.ListAccounts(ctx, account.RoleStandard)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SetBlocked(ctx, account.RoleStandard, alice.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	acc, err := f.svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, acc.Blocked)
}

func TestBlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	for range 2 {
		acc, err := f.svc.SetBlocked(ctx, account.RoleAdmin, alice.ID, true)
		require.NoError(t, err)
		assert.True(t, acc.Blocked)
	}
	for range 2 {
		acc, err := f.svc.SetBlocked(ctx, account.RoleAdmin, alice.ID, false)
		require.NoError(t, err)
		assert.False(t, acc.Blocked)
	}

	_, err = f.svc.SetBlocked(ctx, account.RoleAdmin, uuid.New(), true)
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.ProvisionAdmin(ctx, "admin", "admin@example.com", "secret")
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	accounts, err := f.svc.ListAccounts(ctx, account.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	raw := f.mailer.lastToken(t, "alice@example.com")

	require.NoError(t, f.svc.ResetPassword(ctx, raw, "newpw"))

	_, err = f.svc.Login(ctx, "alice@example.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "alice@example.com", "newpw")
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, raw, "third")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestForgotPasswordMailFailureKeepsReset(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	f.mailer.err = errors.New("smtp timeout")
	err = f.svc.ForgotPassword(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrMailDelivery)

	acc, err := f.store.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, acc.HasPendingReset())
}

func TestResetPasswordRequiresPassword(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.ResetPassword(context.Background(), "whatever", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestUpdateProfileIsSparse(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	phone := "555-0100"
	updated, err := f.svc.UpdateProfile(ctx, alice.ID, ProfileChanges{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, alice.PasswordHash, updated.PasswordHash)

	newPassword := "pw2"
	updated, err = f.svc.UpdateProfile(ctx, alice.ID, ProfileChanges{Password: &newPassword})
	require.NoError(t, err)
	assert.NotEqual(t, alice.PasswordHash, updated.PasswordHash)

	_, err = f.svc.Login(ctx, "alice@example.com", "pw2")
	assert.NoError(t, err)
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	alice, err := f.svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	blank := "   "
	_, err = f.svc.UpdateProfile(ctx, alice.ID, ProfileChanges{Name: &blank})
	assert.ErrorIs(t, err, ErrNameRequired)

	empty := ""
	_, err = f.svc.UpdateProfile(ctx, alice.ID, ProfileChanges{Password: &empty})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestLegacyBcryptHashIsUpgradedOnLogin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)
	imported, err := f.store.Create(ctx, &account.Account{Name: "Old", Email: "old@example.com", PasswordHash: string(legacy)})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "old@example.com", "pw1")
	require.NoError(t, err)

	acc, err := f.store.GetByID(ctx, imported.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(acc.PasswordHash, "$argon2id$"))

	_, err = f.svc.Login(ctx, "old@example.com", "pw1")
	assert.NoError(t, err)
}

func TestProvisionAdmin(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	admin, err := f.svc.ProvisionAdmin(ctx, "admin", "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, account.RoleAdmin, admin.Role)

	_, err = f.svc.ProvisionAdmin(ctx, "admin", "admin@example.com", "secret")
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}
