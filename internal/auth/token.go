package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/storefront-api/internal/config"
)

// SessionTokenTTL is the fixed lifetime of a session token.
const SessionTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers every verification failure: bad signature or
// ciphertext, malformed claims and expiry alike.
var ErrInvalidToken = errors.New("token is not valid")

// TokenService issues and verifies session tokens.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(accountID uuid.UUID) (string, error)
	VerifyToken(tokenStr string) (uuid.UUID, error)
}

// NewTokenService builds the token service selected by cfg.TokenFormat.
func NewTokenService(cfg config.AuthConfig, clock Clock) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		return NewPasetoService(cfg.PasetoKey, clock)
	case config.TokenFormatJWT:
		return NewJWTService(cfg.JWTSecret, clock)
	}
	return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
}
