package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"access-console/pkg/utils"
)

var logger = loggo.GetLogger("console.middleware")

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Criticalf("[Recovery] PANIC on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.Error(w, errors.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
