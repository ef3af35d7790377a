package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/juju/errors"

	"access-console/internal/auth"
	"access-console/internal/dashboard"
	"access-console/internal/models"
	"access-console/internal/session"
	"access-console/pkg/utils"
)

type contextKey string

const SessionKey contextKey = "session"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	store      session.Store
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, store session.Store) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		store:      store,
	}
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients
// cannot set headers and pass ?token= instead.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("token"); t != "" && isWebsocket(r) {
			return t, nil
		}
		return "", errors.NewUnauthorized(nil, "Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.NewUnauthorized(nil, "Invalid authorization format")
	}
	return parts[1], nil
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// Authenticate validates the console token and loads its session.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			utils.Error(w, err)
			return
		}
		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.Error(w, errors.NewUnauthorized(nil, "Invalid or expired token"))
			return
		}

		// The session store, not the token, is authoritative: a logged out
		// session is rejected even while its token is unexpired.
		sess, err := session.LoadProfile(r.Context(), m.store, claims.SessionID)
		if errors.Is(err, errors.NotFound) {
			utils.Error(w, errors.NewUnauthorized(nil, "Session expired. Please log in again."))
			return
		}
		if err != nil {
			utils.Error(w, errors.Annotate(err, "loading session"))
			return
		}
		sess.IPAddress = ClientIP(r)

		ctx := context.WithValue(r.Context(), SessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects sessions whose user_type is not admin or superadmin.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r.Context())
		if !ok {
			utils.Error(w, errors.NewUnauthorized(nil, "Not authenticated"))
			return
		}
		if !dashboard.IsAdmin(sess.UserType) {
			utils.Error(w, errors.NewForbidden(nil, "Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession extracts the session from request context
func GetSession(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*models.Session)
	return sess, ok && sess != nil
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}
