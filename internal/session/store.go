// Package session holds the per-session workflow state of the console: the
// cached connections, the selected company and the open drafts.
package session

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("console.session")

// Store keeps raw JSON values per session id. Get returns an error satisfying
// errors.IsNotFound when the key or the session does not exist.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// Key is a typed session entry.
type Key[T any] struct {
	name string
}

// NewKey declares a session entry stored under name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the storage key.
func (k Key[T]) Name() string { return k.name }

// Get reads and decodes the entry.
func (k Key[T]) Get(ctx context.Context, s Store, sessionID string) (T, error) {
	var v T
	raw, err := s.Get(ctx, sessionID, k.name)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, errors.Annotatef(err, "decoding session key %q", k.name)
	}
	return v, nil
}

// Lookup is Get with a missing entry reported as ok=false instead of an error.
func (k Key[T]) Lookup(ctx context.Context, s Store, sessionID string) (v T, ok bool, err error) {
	v, err = k.Get(ctx, s, sessionID)
	if errors.Is(err, errors.NotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Set encodes and stores the entry.
func (k Key[T]) Set(ctx context.Context, s Store, sessionID string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Annotatef(err, "encoding session key %q", k.name)
	}
	return errors.Trace(s.Set(ctx, sessionID, k.name, raw))
}

// Delete removes the entry.
func (k Key[T]) Delete(ctx context.Context, s Store, sessionID string) error {
	return errors.Trace(s.Delete(ctx, sessionID, k.name))
}

func missing(sessionID, key string) error {
	return errors.NotFoundf("session %s key %q", sessionID, key)
}
