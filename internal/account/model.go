package account

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization tier of an account.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RoleAdmin
}

// IsAdmin reports whether r grants admin operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Account is a registered customer or administrator.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Role         Role      `json:"role"`
	Blocked      bool      `json:"isBlocked"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`

	// ResetTokenHash and ResetTokenExpiresAt are set and cleared together.
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPendingReset reports whether a reset token is stored for the account.
func (a *Account) HasPendingReset() bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiresAt != nil
}

// ProfileUpdate is a sparse set of owner-editable fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name         *string
	Address      *string
	Phone        *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Address == nil && u.Phone == nil && u.PasswordHash == nil
}
