package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/internal/config"
	"access-console/internal/models"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "access-console"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("s3cret"))
	token, err := m.GenerateToken(&models.Session{ID: "sess-1", Email: "a@example.com", UserType: "admin"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.UserType)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("one")).GenerateToken(&models.Session{ID: "s"})
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("two")).ValidateToken(token)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestTokenExpired(t *testing.T) {
	cfg := testConfig("s3cret")
	claims := &Claims{
		SessionID: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)

	_, err = NewJWTManager(cfg).ValidateToken(token)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{SessionID: "s", RegisteredClaims: jwt.RegisteredClaims{Issuer: "access-console"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("s3cret")).ValidateToken(token)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}
