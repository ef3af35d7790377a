package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// RequestLogger logs one line per API request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip logging for health checks and scrapes
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		line := "[API] %s %s %d %dB %.1fms ip=%s"
		args := []interface{}{
			r.Method, sanitizePath(r.URL.Path), wrapped.statusCode, wrapped.bytesWritten,
			float64(duration.Microseconds()) / 1000.0, ClientIP(r),
		}
		if wrapped.statusCode >= http.StatusInternalServerError {
			logger.Errorf(line, args...)
		} else if wrapped.statusCode >= http.StatusBadRequest {
			logger.Warningf(line, args...)
		} else {
			logger.Infof(line, args...)
		}
	})
}

// shouldSkipLogging returns true for paths that shouldn't be logged
func shouldSkipLogging(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/favicon.ico"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

// sanitizePath truncates very long paths.
func sanitizePath(path string) string {
	if len(path) > 200 {
		path = path[:200]
	}
	return path
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies/load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
