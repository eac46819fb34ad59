package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the session on the client
type AuthStorage interface {
	// SaveAuth stores the current session, replacing any previous one.
	// Switching to another user drops the cached contacts of the previous one.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves the stored session
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session and its cached contacts (logout)
	// Returns ErrAuthNotFound if no session exists
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a session exists and is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the session saved after signup or login
type AuthData struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Token     string `json:"token"`      // session token из cookie jwt
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}

// Expired reports whether the token lifetime is over at now
func (a *AuthData) Expired(now time.Time) bool {
	return !now.Before(time.Unix(a.ExpiresAt, 0))
}
