package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
)

type memorySession struct {
	values    map[string][]byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. It is used when Redis is not
// reachable and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	clock    clock.Clock
	ttl      time.Duration
	sessions map[string]*memorySession
}

// NewMemoryStore creates a store whose sessions expire ttl after their last
// write. A zero ttl disables expiry.
func NewMemoryStore(clk clock.Clock, ttl time.Duration) *MemoryStore {
	if clk == nil {
		clk = clock.WallClock
	}
	return &MemoryStore{clock: clk, ttl: ttl, sessions: make(map[string]*memorySession)}
}

// live returns the session or nil, dropping it if expired. Caller holds mu.
func (m *MemoryStore) live(sessionID string) *memorySession {
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && !m.clock.Now().Before(sess.expiresAt) {
		delete(m.sessions, sessionID)
		return nil
	}
	return sess
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.live(sessionID)
	if sess == nil {
		return nil, missing(sessionID, key)
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, missing(sessionID, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.live(sessionID)
	if sess == nil {
		sess = &memorySession{values: make(map[string][]byte)}
		m.sessions[sessionID] = sess
	}
	sess.values[key] = append([]byte(nil), value...)
	sess.expiresAt = m.clock.Now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess := m.live(sessionID); sess != nil {
		for _, k := range keys {
			delete(sess.values, k)
		}
	}
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(sessionID) != nil, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
