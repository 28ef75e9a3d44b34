package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
	"github.com/inkwell-cms/inkwell/pkg/inkwell/auth"
)

type contextKey string

const userKey contextKey = "user"

// RequireUser gates a route tree behind a valid, non-expired token supplied
// via the jwt cookie or Authorization header. Every failure mode yields the
// same generic 401.
func RequireUser(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := jwtauth.TokenFromCookie(r)
			if tokenString == "" {
				tokenString = jwtauth.TokenFromHeader(r)
			}
			if tokenString == "" {
				unauthorized(w, r)
				return
			}

			user, err := svc.VerifyToken(tokenString)
			if err != nil {
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the verified identity set by RequireUser.
func UserFromContext(ctx context.Context) (*inkwell.User, bool) {
	user, ok := ctx.Value(userKey).(*inkwell.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{"error": "Authentication required"})
}
