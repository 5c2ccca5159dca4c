// Package auth carries the acting user through a request.
//
// Authentication happens upstream at the gateway, which forwards the
// authenticated user id in the X-User-ID header. This package only reads it;
// every permission decision belongs to the journal services.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Header is the request header holding the acting user id.
const Header = "X-User-ID"

type ctxKey string

const actorKey ctxKey = "actor"

// WithActor returns ctx carrying userID as the acting user.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// Actor returns the acting user id and a found flag.
func Actor(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey).(string)
	return id, ok && id != ""
}

// CurrentActor is Actor on the request context.
func CurrentActor(r *http.Request) (string, bool) {
	return Actor(r.Context())
}

// LoadActor injects the X-User-ID value into the request context when present.
func LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(Header)); id != "" {
			r = r.WithContext(WithActor(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests without an acting user with 401.
func RequireActor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentActor(r); ok {
				next.ServeHTTP(w, r)
				return
			}
			logger.Debug("request without acting user",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "missing " + Header + " header",
				},
			})
		})
	}
}
