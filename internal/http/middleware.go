package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hadidevlabx/shopfront/internal/session"
)

// AuthMiddleware resolves the bearer token into a session. Requests
// without a valid token proceed as anonymous; the handlers decide what
// is gated.
func AuthMiddleware(verifier *session.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.Anonymous

			auth := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
				if parsed, err := verifier.Verify(token); err == nil {
					sess = parsed
				}
			}

			ctx := context.WithValue(r.Context(), "session", sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
