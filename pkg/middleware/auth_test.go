package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidockhq/apidock/pkg/auth"
)

type fakeAuthService struct {
	users map[string]*auth.User
	err   error
}

func (f *fakeAuthService) UserForToken(ctx context.Context, token string) (*auth.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, userID int64) (*auth.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func echoUserHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if ok {
			w.Header().Set("X-Test-User", user.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	svc := &fakeAuthService{users: map[string]*auth.User{
		"adk_goodtoken": {ID: 7, Username: "alice", IsActive: true},
	}}
	handler := NewAuthMiddleware(svc, false).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer adk_goodtoken")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Header().Get("X-Test-User"))
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthMiddleware(svc, false).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareOptionalAllowsAnonymous(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthMiddleware(svc, true).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Test-User"))
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthMiddleware(svc, false).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer adk_unknown")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareInactiveUser(t *testing.T) {
	svc := &fakeAuthService{err: auth.ErrUserInactive}
	handler := NewAuthMiddleware(svc, false).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer adk_inactive")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthMiddleware(svc, false).Handler(echoUserHandler(t))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	svc := &fakeAuthService{users: map[string]*auth.User{
		"adk_admin": {ID: 1, Username: "root", IsAdmin: true, IsActive: true},
		"adk_user":  {ID: 2, Username: "bob", IsActive: true},
	}}

	handler := NewAuthMiddleware(svc, false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := RequireAdmin(w, r); !ok {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer adk_admin")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer adk_user")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	// An upstream-assigned ID is preserved
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}
