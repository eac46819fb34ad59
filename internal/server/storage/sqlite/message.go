package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/storage"
)

// Append persists a new message in a single INSERT
func (s *Storage) Append(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	if err := storage.ValidateNewMessage(msg); err != nil {
		return models.Message{}, err
	}

	query := `
		INSERT INTO messages (sender_id, receiver_id, text, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	createdAt := s.now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		msg.SenderID,
		msg.ReceiverID,
		msg.Text,
		msg.ImageURL,
		createdAt.UnixNano(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Message{}, storage.ErrUserNotFound
		}
		return models.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to get message id: %w", err)
	}

	return models.Message{
		ID:         id,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		ImageURL:   msg.ImageURL,
		CreatedAt:  time.Unix(0, createdAt.UnixNano()).UTC(),
	}, nil
}

// ConversationBetween returns the ordered conversation of a and b
func (s *Storage) ConversationBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image_url, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var (
			m         models.Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.ImageURL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
