package router

import (
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v3"

	"github.com/andresuryana/vericode/internal/pkg/jwt"
)

// middlewareAuthorization enforces the casbin policy using the role claim as
// subject, the matched route as object, and the HTTP method as action.
// Requests without claims (public endpoints) pass through.
func middlewareAuthorization(enforcer *casbin.Enforcer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforcer == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims := jwt.GetAuth(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := enforcer.Enforce(claims.Role, matchedRoutePath(r), r.Method)
			if err != nil {
				slog.ErrorContext(r.Context(), "authorization check failed", "error", err)
				writeJSON(w, map[string]string{"message": "Internal server error"}, http.StatusInternalServerError)
				return
			}
			if !allowed {
				writeJSON(w, map[string]string{"message": "Access denied"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
