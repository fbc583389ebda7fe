package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the bun model of the accounts table.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid"`
	Name                string     `bun:"name,notnull"`
	Email               string     `bun:"email,notnull,unique"`
	PasswordHash        string     `bun:"password_hash,notnull"`
	Role                string     `bun:"role,notnull"`
	Blocked             bool       `bun:"blocked,notnull"`
	Address             string     `bun:"address,notnull"`
	Phone               string     `bun:"phone,notnull"`
	ResetTokenHash      *string    `bun:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `bun:"reset_token_expires_at"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt           time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
