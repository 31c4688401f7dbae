package middleware

import (
	"context"
	"net/http"

	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/handlers/userctx"
	"github.com/dankotyt/Bank-REST/internal/models"
)

type authenticator interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
	ExpireSessionCookies(w http.ResponseWriter)
}

// Auth resolves the request's access token to a user and puts the user in
// the request context. Requests that fail lose their session cookies.
func Auth(auth authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Auth(r.Context(), r)
			if err != nil {
				auth.ExpireSessionCookies(w)
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}

// RequireAdmin allows the request through only for ADMIN users.
// It expects Auth to have run earlier in the chain.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if user.Role != models.RoleAdmin {
			render.ServiceError(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
