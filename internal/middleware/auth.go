// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reanahub/reana-relay/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenResolver resolves an access token to its owning user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// TokenAuth is a middleware that authenticates requests with a bearer
// access token, taken from the "access_token" query parameter, an
// "Authorization: Bearer" header, or the "X-Gitlab-Token" header that
// GitLab webhooks send their configured secret token in.
//
// On success the resolved user is stored in the request context, so it
// can be used downstream as the authenticated caller. Any failure ends
// the request with 401 and a JSON message that never reveals which part
// of the credential was wrong.
func TokenAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("access_token")
			if token == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					token = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if token == "" {
				token = r.Header.Get("X-Gitlab-Token")
			}
			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "token not valid"})
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user from the request
// context. Returns nil if the request did not pass TokenAuth.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
