package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/apidockhq/apidock/pkg/auth"
	"github.com/apidockhq/apidock/pkg/contextkeys"
	"github.com/apidockhq/apidock/pkg/httputil"
)

// AuthMiddleware resolves bearer tokens to users
type AuthMiddleware struct {
	service  auth.Service
	optional bool // if true, requests without a token pass through anonymously
}

// NewAuthMiddleware creates authentication middleware
func NewAuthMiddleware(service auth.Service, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		service:  service,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		user, err := m.service.UserForToken(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrUserInactive) {
				httputil.WriteForbidden(w, "user account is inactive")
				return
			}
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(r *http.Request) (*auth.User, bool) {
	user, ok := r.Context().Value(contextkeys.UserKey).(*auth.User)
	return user, ok
}

// RequireUser returns the authenticated user or writes a 401
func RequireUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := UserFromContext(r)
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return nil, false
	}
	return user, true
}

// RequireAdmin returns the authenticated admin user or writes a 401/403
func RequireAdmin(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := RequireUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		httputil.WriteForbidden(w, "admin privileges required")
		return nil, false
	}
	return user, true
}
