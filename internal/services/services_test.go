package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"access-console/internal/models"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

const connectionsJSON = `{"createdByMe":[
	{"guid":"g1","tallyloc_id":1,"company":"Acme Traders","access_type":"Owner","status":"online"},
	{"guid":"g2","tallyloc_id":2,"company":"Beta Foods","access_type":"Shared","status":"offline"}
]}`

// fakeUpstream serves canned responses and records what it was sent.
type fakeUpstream struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	bodies map[string][]json.RawMessage
}

func newFakeUpstream(t *testing.T) (*fakeUpstream, *upstream.Client) {
	t.Helper()
	f := &fakeUpstream{
		routes: map[string]http.HandlerFunc{},
		bodies: map[string][]json.RawMessage{},
	}
	f.reply(upstream.PathUserConnections, connectionsJSON)
	f.reply(upstream.PathRoles, `[{"id":5,"display_name":"Viewer"},{"id":7,"display_name":"Editor"}]`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		if len(body) > 0 {
			f.bodies[r.URL.Path] = append(f.bodies[r.URL.Path], body)
		}
		h, ok := f.routes[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, upstream.NewClient(srv.URL, 5*time.Second)
}

func (f *fakeUpstream) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = h
}

func (f *fakeUpstream) reply(path, body string) {
	f.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (f *fakeUpstream) fail(path string, status int, msg string) {
	f.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
	})
}

func (f *fakeUpstream) sent(path string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[path]
}

// recorder collects audit entries.
type recorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recorder) Record(_ context.Context, e *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.ActionType)
	}
	return out
}

type fixture struct {
	up    *fakeUpstream
	store session.Store
	sess  *models.Session
	audit *recorder

	conns  *ConnectionService
	roles  *RoleService
	share  *ShareAccessService
	access *AccessService
	groups *GroupService
	bank   *BankDetailsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	up, client := newFakeUpstream(t)
	store := session.NewMemoryStore(nil, 0)
	sess := &models.Session{ID: "sess-1", Token: "up-token", Email: "admin@example.com", UserType: "admin", IPAddress: "10.0.0.1"}
	require.NoError(t, session.SaveProfile(context.Background(), store, sess))

	rec := &recorder{}
	conns := NewConnectionService(client, store, nil)
	roles := NewRoleService(client)
	return &fixture{
		up:     up,
		store:  store,
		sess:   sess,
		audit:  rec,
		conns:  conns,
		roles:  roles,
		share:  NewShareAccessService(client, store, conns, rec),
		access: NewAccessService(client, store, conns, roles, rec),
		groups: NewGroupService(client, store, conns, rec),
		bank:   NewBankDetailsService(client, rec),
	}
}

var acme = models.CompanyKey{GUID: "g1", TallylocID: "1"}
