package middleware

import (
	"net/http"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
	"github.com/google/uuid"
)

// RequestID tags the request with a trace id, reusing the caller's when sent.
// The id flows into the context logger and onto backend calls.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(internal.TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := internal.ContextWithTraceID(r.Context(), traceID)
		ctx = logger.With(ctx, "traceID", traceID)

		w.Header().Set(internal.TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
