package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrContactNotFound indicates that the contact is not in the local cache
	ErrContactNotFound = errors.New("contact not found")
)
