package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("email already exists")

	// ErrEmptyMessage indicates a message with neither text nor image
	ErrEmptyMessage = errors.New("message must contain text or image")
)
