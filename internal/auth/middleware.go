package auth

import (
	"net/http"
	"strings"

	"github.com/formforge/formforge/internal/rbac"
)

// Require rejects requests without a valid bearer token and puts the
// verified identity (and its role, for RBAC) into the request context.
func Require(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			id, err := s.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithRole(WithIdentity(r.Context(), id), id.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional attaches an identity when a valid bearer token is present and
// passes the request through anonymously otherwise. Used on surfaces that
// permit anonymous access (public form reads, anonymous form authoring).
func Optional(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if strings.HasPrefix(h, "Bearer ") {
				if id, err := s.Verify(strings.TrimPrefix(h, "Bearer ")); err == nil {
					ctx := rbac.WithRole(WithIdentity(r.Context(), id), id.Role)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
