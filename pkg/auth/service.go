package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Service resolves bearer tokens and user IDs to user accounts
type Service interface {
	// UserForToken returns the active user owning a valid token, or
	// ErrInvalidToken / ErrUserInactive
	UserForToken(ctx context.Context, token string) (*User, error)
	// GetUser returns a user by ID, or ErrUserNotFound
	GetUser(ctx context.Context, userID int64) (*User, error)
}

// SQLService is the SQL-backed auth service
type SQLService struct {
	db        *sql.DB
	generator *TokenGenerator
}

// NewSQLService creates a SQL-backed auth service
func NewSQLService(db *sql.DB) *SQLService {
	return &SQLService{
		db:        db,
		generator: NewTokenGenerator(),
	}
}

// Migrate creates the auth tables if they do not exist
func (s *SQLService) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS api_tokens (
			token_hash TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token_prefix TEXT NOT NULL,
			name TEXT NOT NULL,
			expires_at TIMESTAMP,
			revoked_at TIMESTAMP,
			last_used_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_tokens_user ON api_tokens (user_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run auth migration: %w", err)
		}
	}
	return nil
}

// UserForToken resolves a bearer token to its active user
func (s *SQLService) UserForToken(ctx context.Context, token string) (*User, error) {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	tokenHash := s.generator.HashToken(token)

	var user User
	var expiresAt, revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.email, u.is_admin, u.is_active, u.created_at, t.expires_at, t.revoked_at
		 FROM api_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token_hash = $1`,
		tokenHash,
	).Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.IsActive, &user.CreatedAt, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if revokedAt.Valid {
		return nil, ErrInvalidToken
	}
	if expiresAt.Valid && expiresAt.Time.Before(time.Now()) {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Best effort, a failed usage stamp never fails authentication
	_, _ = s.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = $1 WHERE token_hash = $2`,
		time.Now().UTC(), tokenHash,
	)

	return &user, nil
}

// GetUser returns a user by ID
func (s *SQLService) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, is_admin, is_active, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.IsActive, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %d: %w", userID, err)
	}
	return &user, nil
}

// CreateToken issues a token for a user and returns the plaintext once
func (s *SQLService) CreateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := s.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	record := &APIToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (token_hash, user_id, token_prefix, name, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.TokenHash, record.UserID, record.TokenPrefix, record.Name, record.ExpiresAt, record.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return record, token, nil
}
