package auth

import (
	"errors"
	"time"
)

// User is an account in the knowledge base
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// APIToken is a stored API token record. The plaintext token is
// returned once at creation and only its hash is persisted.
type APIToken struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"token_prefix"`
	Name        string     `json:"name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ErrInvalidToken indicates the token is unknown, expired, or revoked
var ErrInvalidToken = errors.New("invalid token")

// ErrUserInactive indicates the token's user account is deactivated
var ErrUserInactive = errors.New("user account is inactive")

// ErrUserNotFound indicates no user exists with the given ID
var ErrUserNotFound = errors.New("user not found")
