package upstream

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"access-console/internal/models"
)

// connectionEnvelope is the current user-connections shape. Older backends
// return a bare array instead.
type connectionEnvelope struct {
	Success      *bool               `json:"success"`
	Message      string              `json:"message"`
	CreatedByMe  []models.Connection `json:"createdByMe"`
	SharedWithMe []models.Connection `json:"sharedWithMe"`
}

// NormalizeConnections turns either user-connections shape into one list.
// Owned connections come before shared ones; a connection seen twice (same
// guid and location) is kept once, at its first position.
func NormalizeConnections(raw json.RawMessage) ([]models.Connection, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Connection{}, nil
	}

	var all []models.Connection
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &all); err != nil {
			return nil, errors.Annotate(err, "decoding connection list")
		}
	} else {
		var env connectionEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Annotate(err, "decoding connection envelope")
		}
		if env.Success != nil && !*env.Success {
			return nil, backendFailure(env.Message)
		}
		all = append(env.CreatedByMe, env.SharedWithMe...)
	}

	seen := make(map[models.CompanyKey]bool, len(all))
	out := make([]models.Connection, 0, len(all))
	for _, c := range all {
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		out = append(out, c)
	}
	return out, nil
}

// decodeList reads a list that the backend returns either bare or wrapped in
// an object. Wrapped lists are looked up under the preferred keys first, then
// under any array-valued key (alphabetically) so renamed fields still work.
func decodeList(raw json.RawMessage, out interface{}, preferred ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return errors.Trace(json.Unmarshal(raw, out))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errors.Annotate(err, "decoding response object")
	}
	if s, ok := obj["success"]; ok && bytes.Equal(bytes.TrimSpace(s), []byte("false")) {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &msg)
		return backendFailure(msg.Message)
	}

	tried := set.NewStrings()
	for _, key := range preferred {
		tried.Add(key)
		if v, ok := obj[key]; ok && isArray(v) {
			return errors.Trace(json.Unmarshal(v, out))
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !tried.Contains(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if isArray(obj[k]) {
			return errors.Trace(json.Unmarshal(obj[k], out))
		}
	}
	// Some endpoints nest the payload under "data".
	if v, ok := obj["data"]; ok && len(bytes.TrimSpace(v)) > 0 && bytes.TrimSpace(v)[0] == '{' {
		return decodeList(v, out, preferred...)
	}
	return nil
}

// backendFailure is a 2xx reply whose body says success:false.
func backendFailure(msg string) *Error {
	if msg == "" {
		msg = "backend reported failure"
	}
	return &Error{Status: http.StatusOK, Message: msg}
}

// responseError ties a body-level failure to the request that produced it.
// A body that could not be read as a list is reported as an invalid
// response, the same as a body that is not JSON at all.
func responseError(method, path string, err error) error {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		if upstreamErr.Method == "" {
			upstreamErr.Method, upstreamErr.Path = method, path
		}
		return upstreamErr
	}
	return &Error{Method: method, Path: path, Status: http.StatusOK, Message: "invalid response: " + err.Error()}
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

// tallyGroup is a ledger group, stock group or stock category as Tally
// exports it.
type tallyGroup struct {
	MasterID    models.MasterID `json:"MASTERID"`
	Name        string          `json:"NAME"`
	Parent      string          `json:"PARENT"`
	Description string          `json:"DESCRIPTION"`
}

func (g tallyGroup) item() models.GroupItem {
	desc := g.Description
	if desc == "" {
		desc = g.Parent
	}
	return models.GroupItem{ID: g.MasterID, Name: g.Name, Description: desc}
}
