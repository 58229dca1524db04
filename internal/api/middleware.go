package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wgomg/vocabula/internal/utils"
)

type ctxKey struct{}

const RequestIDHeader = "X-Request-ID"

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithRequestID tags each request with the caller's X-Request-ID or a new
// UUID, echoes it in the response and logs the request when it completes.
func WithRequestID(next http.Handler, logger *utils.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqID)))
		logger.Info(&reqID, "%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
