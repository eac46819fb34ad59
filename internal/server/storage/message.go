package storage

import (
	"context"

	"github.com/iudanet/gophchat/internal/models"
)

// MessageStorage defines interface for the append-only message log
type MessageStorage interface {
	// Append validates, assigns id and createdAt, and persists the message atomically
	// Returns ErrEmptyMessage if both text and image URL are empty
	Append(ctx context.Context, msg models.NewMessage) (models.Message, error)

	// ConversationBetween returns all messages exchanged by a and b in either
	// direction, ordered by createdAt then id. The result is a snapshot.
	// Returns empty slice if the users never talked
	ConversationBetween(ctx context.Context, a, b string) ([]models.Message, error)
}

// ValidateNewMessage checks the text/image invariant shared by all backends.
func ValidateNewMessage(msg models.NewMessage) error {
	if msg.IsEmpty() {
		return ErrEmptyMessage
	}
	return nil
}
