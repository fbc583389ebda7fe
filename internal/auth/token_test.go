package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/storefront-api/internal/config"
)

func tokenServices(t *testing.T, clock Clock) map[string]TokenService {
	t.Helper()

	pasetoSvc, err := NewPasetoService(testPasetoKey, clock)
	require.NoError(t, err)
	jwtSvc, err := NewJWTService([]byte("jwt-test-secret"), clock)
	require.NoError(t, err)

	return map[string]TokenService{"paseto": pasetoSvc, "jwt": jwtSvc}
}

func TestTokenRoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			id := uuid.New()

			token, err := svc.CreateToken(id)
			require.NoError(t, err)

			got, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	for name, svc := range tokenServices(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(uuid.New())
			require.NoError(t, err)

			for _, i := range []int{0, 10, len(token) / 2, len(token) - 2} {
				_, err := svc.VerifyToken(tamper(token, i))
				assert.ErrorIs(t, err, ErrInvalidToken, "position %d", i)
			}
		})
	}
}

func TestTokenExpiresAfterSevenDays(t *testing.T) {
	clock := newFakeClock()
	for name, svc := range tokenServices(t, clock) {
		t.Run(name, func(t *testing.T) {
			start := clock.Now()
			token, err := svc.CreateToken(uuid.New())
			require.NoError(t, err)

			clock.Advance(SessionTokenTTL - time.Second)
			_, err = svc.VerifyToken(token)
			assert.NoError(t, err)

			clock.Advance(2 * time.Second)
			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)

			clock.Advance(start.Sub(clock.Now()))
		})
	}
}

func TestTokenFromOtherKeyIsInvalid(t *testing.T) {
	clock := newFakeClock()

	issuer, err := NewPasetoService(testPasetoKey, clock)
	require.NoError(t, err)
	verifier, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"), clock)
	require.NoError(t, err)

	token, err := issuer.CreateToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokensAreInvalid(t *testing.T) {
	for name, svc := range tokenServices(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "garbage", "v4.local.", "a.b.c"} {
				_, err := svc.VerifyToken(token)
				assert.ErrorIs(t, err, ErrInvalidToken, token)
			}
		})
	}
}

func TestJWTRejectsNoneAlgorithm(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewJWTService([]byte("jwt-test-secret"), clock)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		ID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRequiresExpiry(t *testing.T) {
	secret := []byte("jwt-test-secret")
	svc, err := NewJWTService(secret, newFakeClock())
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{ID: uuid.NewString()}).SignedString(secret)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewPasetoServiceRejectsShortKey(t *testing.T) {
	_, err := NewPasetoService([]byte("short"), newFakeClock())
	assert.Error(t, err)
}

func TestNewTokenServiceSelectsFormat(t *testing.T) {
	clock := newFakeClock()

	svc, err := NewTokenService(config.AuthConfig{TokenFormat: config.TokenFormatPaseto, PasetoKey: testPasetoKey}, clock)
	require.NoError(t, err)
	assert.IsType(t, &PasetoService{}, svc)

	svc, err = NewTokenService(config.AuthConfig{TokenFormat: config.TokenFormatJWT, JWTSecret: []byte("s")}, clock)
	require.NoError(t, err)
	assert.IsType(t, &JWTService{}, svc)

	_, err = NewTokenService(config.AuthConfig{TokenFormat: "saml"}, clock)
	assert.Error(t, err)
}
