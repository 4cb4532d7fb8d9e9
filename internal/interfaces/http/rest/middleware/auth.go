// Package middleware holds the HTTP middleware for the REST interface:
// authentication, request logging, and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

type contextKey struct{}

var userIDKey contextKey

// Authenticate verifies the Bearer token against the auth service and
// stores the resolved user ID in the request context. Requests without a
// valid token are rejected with 401.
func Authenticate(client *supabase.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			// GetUser chained off WithToken carries no context argument;
			// the client handles the HTTP call internally.
			user, err := client.Auth.WithToken(token).GetUser()
			if err != nil {
				logger.Debug("token verification failed", zap.Error(err))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user's ID from the request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID injects a user ID into a context. Intended for tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":true,"message":"Unauthorized","code":401}`))
}
