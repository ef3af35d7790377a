package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/internal/auth"
	"access-console/internal/config"
	"access-console/internal/models"
	"access-console/internal/session"
)

func newAuth(t *testing.T) (*AuthMiddleware, *auth.JWTManager, session.Store) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "access-console"
	jwtManager := auth.NewJWTManager(cfg)
	store := session.NewMemoryStore(nil, 0)
	return NewAuthMiddleware(jwtManager, store), jwtManager, store
}

func login(t *testing.T, jwtManager *auth.JWTManager, store session.Store, sess *models.Session) string {
	t.Helper()
	require.NoError(t, session.SaveProfile(context.Background(), store, sess))
	token, err := jwtManager.GenerateToken(sess)
	require.NoError(t, err)
	return token
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

var echoSession = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	sess, _ := GetSession(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]string{"email": sess.Email, "ip": sess.IPAddress})
})

func TestAuthenticate(t *testing.T) {
	m, jwtManager, store := newAuth(t)
	token := login(t, jwtManager, store, &models.Session{ID: "s1", Token: "up", Email: "a@example.com", UserType: "user"})
	h := m.Authenticate(echoSession)

	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@example.com","ip":"10.0.0.7"}`, rec.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	m, jwtManager, store := newAuth(t)
	token := login(t, jwtManager, store, &models.Session{ID: "s1", Token: "up"})
	require.NoError(t, store.Clear(context.Background(), "s1"))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header required"},
		{"wrong scheme", "Basic abc", "Invalid authorization format"},
		{"bad token", "Bearer nope", "Invalid or expired token"},
		{"logged out session", "Bearer " + token, "Session expired. Please log in again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(echoSession).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.want, errorBody(t, rec))
		})
	}
}

func TestAuthenticateWebsocketQueryToken(t *testing.T) {
	m, jwtManager, store := newAuth(t)
	token := login(t, jwtManager, store, &models.Session{ID: "s1", Token: "up", Email: "ws@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	m.Authenticate(echoSession).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Plain requests must use the header.
	req = httptest.NewRequest(http.MethodGet, "/api/connections?token="+token, nil)
	rec = httptest.NewRecorder()
	m.Authenticate(echoSession).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	m, _, _ := newAuth(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for userType, want := range map[string]int{
		"admin":      http.StatusNoContent,
		"SuperAdmin": http.StatusNoContent,
		"user":       http.StatusForbidden,
		"":           http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/bank-details", nil)
		req = req.WithContext(WithSession(req.Context(), &models.Session{ID: "s", UserType: userType}))
		rec := httptest.NewRecorder()
		m.RequireAdmin(ok).ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, userType)
	}

	rec := httptest.NewRecorder()
	m.RequireAdmin(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bank-details", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorBody(t, rec))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", ClientIP(req))

	req.Header.Set("X-Real-IP", " 172.16.0.9 ")
	assert.Equal(t, "172.16.0.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "203.0.113.1", ClientIP(req))
}
