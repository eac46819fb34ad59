package storage

import "context"

// Contact is a cached entry of the server user list
type Contact struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ContactStorage caches contacts so commands can address peers by email
type ContactStorage interface {
	// ReplaceContacts overwrites the whole cache
	ReplaceContacts(ctx context.Context, contacts []Contact) error

	// FindContact looks a contact up by id or email
	// Returns ErrContactNotFound if nothing matches
	FindContact(ctx context.Context, key string) (*Contact, error)

	// GetContact returns the contact with the given id
	// Returns ErrContactNotFound if the id is unknown
	GetContact(ctx context.Context, id string) (*Contact, error)
}
