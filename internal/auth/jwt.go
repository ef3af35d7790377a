package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"

	"access-console/internal/config"
	"access-console/internal/models"
	"access-console/internal/timeutil"
)

// Claims identify a console session. The upstream token never leaves the
// server; the browser holds only this.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	UserType  string `json:"user_type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateToken creates a new JWT token for a session
func (j *JWTManager) GenerateToken(sess *models.Session) (string, error) {
	now := timeutil.Now()
	expirationTime := now.Add(time.Duration(j.cfg.JWT.ExpirationHours) * time.Hour)

	claims := &Claims{
		SessionID: sess.ID,
		Email:     sess.Email,
		UserType:  sess.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Email,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.cfg.JWT.Secret))
	return signed, errors.Annotate(err, "signing session token")
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	}, jwt.WithIssuer(j.cfg.JWT.Issuer))
	if err != nil {
		return nil, errors.Unauthorizedf("invalid or expired token: %v", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.Unauthorizedf("invalid token")
	}
	return claims, nil
}
