package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PaulBabatuyi/skillshub/internal/data"
)

// context key type for storing the authenticated user
type userContextKey struct{}

// userFromContext returns the user attached by authenticate.
func userFromContext(ctx context.Context) (*data.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*data.User)
	return u, ok && u != nil
}

func withUser(ctx context.Context, u *data.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// authenticate verifies the bearer token and loads its user. A token for a
// deleted account is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || header == "Bearer" {
			writeError(w, http.StatusUnauthorized, "No token provided. Access denied.")
			return
		}
		// only the "Bearer <token>" scheme is accepted
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token. Access denied.")
			return
		}
		token = strings.TrimSpace(token)

		claims, err := s.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token. Access denied.")
			return
		}
		id, err := claims.ObjectID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token. Access denied.")
			return
		}

		user, err := s.users.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "User not found. Invalid token.")
				return
			}
			errorResponse(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// requireAdmin must run after authenticate.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if u.Role != data.RoleAdmin {
			writeError(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireStore answers 503 while the last store ping failed.
func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil && !s.health.Healthy() {
			writeError(w, http.StatusServiceUnavailable, "Database is not connected. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
