package auth

import (
	"fmt"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const accountIDClaim = "id"

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	clock        Clock
}

func NewPasetoService(symmetricKey []byte, clock Clock) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		clock:        clock,
	}, nil
}

// CreateToken generates a PASETO v4.local token for the account, valid for SessionTokenTTL
func (s *PasetoService) CreateToken(accountID uuid.UUID) (string, error) {
	now := s.clock.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(SessionTokenTTL))
	token.SetString(accountIDClaim, accountID.String())

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken decrypts a PASETO v4.local token and returns the account ID it carries
func (s *PasetoService) VerifyToken(tokenStr string) (uuid.UUID, error) {
	// Expiry is checked against the injected clock below, not the parser's wall clock.
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil || !s.clock.Now().Before(expiresAt) {
		return uuid.Nil, ErrInvalidToken
	}

	raw, err := token.GetString(accountIDClaim)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return accountID, nil
}
