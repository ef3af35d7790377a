package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"access-console/internal/metrics"
)

var logger = loggo.GetLogger("console.upstream")

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// Error is a failed call to the integration backend. Its text is the
// user-facing message; Detail adds the request for logs.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Detail describes the failed request.
func (e *Error) Detail() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client calls the integration backend with a session's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, token, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, token, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, token, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, token, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, token, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, token, path, body, out)
}

func (c *Client) do(ctx context.Context, method, token, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Annotatef(err, "encoding %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Annotatef(err, "building %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, path, "error").Inc()
		logger.Warningf("[Upstream] %s %s failed: %v", method, path, err)
		return &Error{Method: method, Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues(method, path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		logger.Warningf("[Upstream] %s %s returned %d: %s", method, path, resp.StatusCode, msg)
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: "invalid response: " + err.Error()}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
