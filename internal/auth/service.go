package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/logging"
)

// Mailer delivers the reset link for a raw reset token.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, rawToken string) error
}

// LoginResult is a session token plus the account it was issued for.
type LoginResult struct {
	Token   string
	Account *account.Account
}

// ProfileChanges is a sparse owner edit. A non-nil Password is rehashed.
type ProfileChanges struct {
	Name     *string
	Address  *string
	Phone    *string
	Password *string
}

// Service handles account and credential business logic
type Service struct {
	store  account.Store
	hasher *PasswordHasher
	tokens TokenService
	resets *ResetManager
	mailer Mailer
	logger *logging.Logger
}

func NewService(
	store account.Store,
	hasher *PasswordHasher,
	tokens TokenService,
	resets *ResetManager,
	mailer Mailer,
	logger *logging.Logger,
) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		resets: resets,
		mailer: mailer,
		logger: logger,
	}
}

// Register creates a standard, unblocked account. It does not log the account in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*account.Account, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.store.Create(ctx, &account.Account{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         account.RoleStandard,
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return nil, account.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// Login authenticates an account and issues a session token. The blocked
// flag is checked before the password.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if acc.Blocked {
		return nil, ErrAccountBlocked
	}

	if !s.hasher.Verify(password, acc.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if isBcryptHash(acc.PasswordHash) {
		s.upgradeLegacyHash(ctx, acc.ID, password)
	}

	token, err := s.tokens.CreateToken(acc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return &LoginResult{Token: token, Account: acc}, nil
}

// upgradeLegacyHash replaces a bcrypt hash with an argon2id one. Failure
// leaves the old hash in place, which still verifies.
func (s *Service) upgradeLegacyHash(ctx context.Context, id uuid.UUID, password string) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash legacy password", "user_id", id, "error", err)
		return
	}
	if _, err := s.store.UpdateProfile(ctx, id, account.ProfileUpdate{PasswordHash: &passwordHash}); err != nil {
		s.logger.Warn("failed to store upgraded password hash", "user_id", id, "error", err)
	}
}

// ForgotPassword starts a reset for the account and mails the link
// synchronously. Unknown emails yield account.ErrNotFound.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	rawToken, err := s.resets.Request(ctx, acc.ID)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, acc.Email, rawToken); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return nil
}

// ResetPassword redeems a raw reset token for a new password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	accountID, err := s.resets.Consume(ctx, rawToken, newPassword)
	if err != nil {
		return err
	}

	s.logger.Info("password reset completed", "user_id", accountID)
	return nil
}

// GetProfile returns the account owned by id.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateProfile applies an owner edit. The password is only rehashed when a
// new one is supplied.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileChanges) (*account.Account, error) {
	update := account.ProfileUpdate{
		Address: changes.Address,
		Phone:   changes.Phone,
	}

	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		update.Name = &name
	}

	if changes.Password != nil {
		if *changes.Password == "" {
			return nil, ErrPasswordRequired
		}
		passwordHash, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		update.PasswordHash = &passwordHash
	}

	return s.store.UpdateProfile(ctx, id, update)
}

// ListAccounts returns every account. Admin only.
func (s *Service) ListAccounts(ctx context.Context, actor account.Role) ([]*account.Account, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.List(ctx)
}

// SetBlocked blocks or unblocks target. Admin only; repeating the same
// value is not an error.
func (s *Service) SetBlocked(ctx context.Context, actor account.Role, target uuid.UUID, blocked bool) (*account.Account, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.store.SetBlocked(ctx, target, blocked)
}

// ProvisionAdmin creates an admin account. It is the only path that assigns
// the admin role; an existing email yields account.ErrDuplicateEmail.
func (s *Service) ProvisionAdmin(ctx context.Context, name, email, password string) (*account.Account, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.Create(ctx, &account.Account{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         account.RoleAdmin,
	})
}

// SweepExpiredResets clears pending resets that have expired.
func (s *Service) SweepExpiredResets(ctx context.Context) (int64, error) {
	return s.resets.SweepExpired(ctx)
}
