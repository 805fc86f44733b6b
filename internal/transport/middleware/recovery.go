package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
)

// RecoveryMiddleware turns a handler panic into a 500 without leaking the
// panic value to the client.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}

			logger.From(r.Context()).Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"url", r.URL.String(),
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":    "Internal server error",
				"trace_id": internal.TraceIDFromContext(r.Context()),
			})
		}()

		next.ServeHTTP(w, r)
	})
}
