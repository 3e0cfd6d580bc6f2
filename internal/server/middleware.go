package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

type contextKey string

const userContextKey contextKey = "user_id"

// DefaultUserID is assumed when the session layer sends no identity header,
// matching single-user local deployments.
const DefaultUserID = "local"

// UserID extracts the requesting user's id from the context.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userContextKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// UserMiddleware resolves the requesting user from the X-User-ID header.
//
// Session management itself lives upstream; this service trusts the header
// the way it would trust a reverse proxy's auth annotations.
func UserMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				userID = DefaultUserID
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, userID)))
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request with method, path, status and
// duration.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}
