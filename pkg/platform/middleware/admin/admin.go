// Package admin guards operator endpoints with a shared token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"regexp"

	"mcpgate/pkg/requestcontext"
)

const (
	TokenHeader = "X-Admin-Token"
	// ActorHeader names the operator for audit attribution.
	ActorHeader = "X-Admin-Actor"

	maxActorLength = 128
)

var validActor = regexp.MustCompile(`^[a-zA-Z0-9@._+-]+$`)

// RequireAdminToken rejects requests whose token does not match expected.
// An empty expected token rejects everything, so the admin surface is closed
// unless configured.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(TokenHeader)
			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			if actor := r.Header.Get(ActorHeader); actor != "" && len(actor) <= maxActorLength && validActor.MatchString(actor) {
				ctx = requestcontext.WithActorID(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
