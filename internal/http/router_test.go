package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/internal/auth"
	"access-console/internal/config"
	"access-console/internal/events"
	"access-console/internal/handlers"
	"access-console/internal/health"
	"access-console/internal/middleware"
	"access-console/internal/services"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

type app struct {
	server *httptest.Server

	mu          sync.Mutex
	connections string
}

func (a *app) setConnections(body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connections = body
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{connections: `[{"guid":"g1","tallyloc_id":1,"company":"Acme Traders","access_type":"Owner"},{"guid":"g2","tallyloc_id":2,"company":"Beta Foods","access_type":"Shared"}]`}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case upstream.PathUserConnections:
			a.mu.Lock()
			body := a.connections
			a.mu.Unlock()
			_, _ = w.Write([]byte(body))
		case upstream.PathRoles:
			_, _ = w.Write([]byte(`[{"id":5,"display_name":"Viewer"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "access-console"
	cfg.Server.CorsAllowedOrigins = []string{"*"}

	store := session.NewMemoryStore(nil, 0)
	jwtManager := auth.NewJWTManager(cfg)
	client := upstream.NewClient(backend.URL, 5*time.Second)
	hub := events.NewHub()
	audit := services.NewAuditService(nil)

	conns := services.NewConnectionService(client, store, hub)
	roles := services.NewRoleService(client)
	access := services.NewAccessService(client, store, conns, roles, audit)

	router := NewRouter(cfg, Handlers{
		Session:     handlers.NewSessionHandler(services.NewSessionService(store, jwtManager), conns),
		Dashboard:   handlers.NewDashboardHandler(),
		Connection:  handlers.NewConnectionHandler(conns),
		Role:        handlers.NewRoleHandler(roles),
		ShareAccess: handlers.NewShareAccessHandler(services.NewShareAccessService(client, store, conns, audit)),
		Access:      handlers.NewAccessHandler(access),
		Group:       handlers.NewGroupHandler(services.NewGroupService(client, store, conns, audit)),
		BankDetails: handlers.NewBankDetailsHandler(services.NewBankDetailsService(client, audit)),
		Report:      handlers.NewReportHandler(services.NewReportService(conns, access, nil, audit)),
		AuditLog:    handlers.NewAuditLogHandler(audit),
		Websocket:   handlers.NewWebsocketHandler(conns, hub, clock.WallClock, cfg.Server.CorsAllowedOrigins),
		Health:      handlers.NewHealthHandler(health.NewHealthChecker(nil)),
	}, middleware.NewAuthMiddleware(jwtManager, store))

	a.server = httptest.NewServer(router)
	t.Cleanup(a.server.Close)
	return a
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (a *app) login(t *testing.T, userType string) string {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/api/session", "", map[string]string{
		"token": "upstream-token", "email": "owner@example.com", "name": "Owner", "user_type": userType,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Token
}

func TestSessionLifecycle(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "user")

	resp, body := a.do(t, http.MethodGet, "/api/connections", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Acme Traders")

	resp, _ = a.do(t, http.MethodPost, "/api/connections/select", token, map[string]interface{}{"guid": "g2", "tallyloc_id": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = a.do(t, http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"selectedCompany"`)
	assert.Contains(t, string(body), "Beta Foods")

	resp, _ = a.do(t, http.MethodDelete, "/api/session", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = a.do(t, http.MethodGet, "/api/connections", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Session expired")
}

func TestCreateSessionValidation(t *testing.T) {
	a := newApp(t)
	resp, body := a.do(t, http.MethodPost, "/api/session", "", map[string]string{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Token is required"}`, string(body))
}

func TestAdminRoutes(t *testing.T) {
	a := newApp(t)
	user := a.login(t, "user")
	admin := a.login(t, "Admin")

	resp, body := a.do(t, http.MethodGet, "/api/bank-details", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Admin access required"}`, string(body))

	resp, _ = a.do(t, http.MethodGet, "/api/audit-logs", admin, nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode, "no database configured")

	resp, _ = a.do(t, http.MethodPost, "/api/reports/access/export", admin, nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode, "no bucket configured")

	resp, _ = a.do(t, http.MethodGet, "/api/roles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBackendFailureKeepsMessage(t *testing.T) {
	a := newApp(t)
	a.setConnections(`{"success":false,"message":"Tally session expired"}`)
	token := a.login(t, "user")

	resp, body := a.do(t, http.MethodPost, "/api/connections/refresh", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Error fetching connections: Tally session expired"}`, string(body))

	a.setConnections(`{"success":true,"createdByMe":"not a list"}`)
	resp, body = a.do(t, http.MethodPost, "/api/connections/refresh", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "Error fetching connections: invalid response")
}

func TestDashboardResolve(t *testing.T) {
	a := newApp(t)
	user := a.login(t, "user")

	resp, body := a.do(t, http.MethodGet, "/api/dashboard?view=bank-details", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		View   string `json:"view"`
		Denied bool   `json:"denied"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "connections", res.View)
	assert.True(t, res.Denied)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)
	resp, body := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")

	resp, body = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "console_http_requests_total")
}

func TestWebsocketSearchAndUpdates(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "user")

	// Load the list once so a later refresh counts as a change.
	resp, _ := a.do(t, http.MethodGet, "/api/connections", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// A burst of keystrokes yields one answer for the last query.
	for _, q := range []string{"b", "be", "bet"} {
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "search", "query": q}))
	}
	var msg struct {
		Type    string `json:"type"`
		Query   string `json:"query"`
		Results []struct {
			Company string `json:"company"`
		} `json:"results"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "searchResults", msg.Type)
	assert.Equal(t, "bet", msg.Query)
	require.Len(t, msg.Results, 1)
	assert.Equal(t, "Beta Foods", msg.Results[0].Company)

	a.setConnections(`[{"guid":"g3","tallyloc_id":3,"company":"Gamma"}]`)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "refresh"}))

	msg.Type = ""
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.ConnectionsUpdatedTopic, msg.Type)
}
