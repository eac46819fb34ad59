package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/storage"
)

// diskMessage is the value stored under a message key
type diskMessage struct {
	SenderID   string `json:"s"`
	ReceiverID string `json:"r"`
	Text       string `json:"t,omitempty"`
	ImageURL   string `json:"i,omitempty"`
	CreatedAt  int64  `json:"c"`
	ID         int64  `json:"id"`
}

// conversationPrefix не зависит от направления сообщения
func conversationPrefix(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("conv:%s:%s:", a, b)
}

func messageKey(m models.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%019d",
		conversationPrefix(m.SenderID, m.ReceiverID),
		m.CreatedAt.UnixNano(),
		m.ID,
	))
}

// Append assigns the next sequence id and stores the message in one transaction
func (s *Storage) Append(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	if err := storage.ValidateNewMessage(msg); err != nil {
		return models.Message{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}

	next, err := s.seq.Next()
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to allocate message id: %w", err)
	}

	nanos := s.now().UnixNano()
	m := models.Message{
		ID:         int64(next) + 1, // Sequence начинается с 0
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		ImageURL:   msg.ImageURL,
		CreatedAt:  time.Unix(0, nanos).UTC(),
	}

	value, err := json.Marshal(diskMessage{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		ImageURL:   m.ImageURL,
		CreatedAt:  nanos,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(m), value)
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to store message: %w", err)
	}

	return m, nil
}

// ConversationBetween scans the conversation prefix inside a read-only snapshot
func (s *Storage) ConversationBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	prefix := []byte(conversationPrefix(a, b))
	messages := make([]models.Message, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var dm diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			})
			if err != nil {
				return err
			}

			messages = append(messages, models.Message{
				ID:         dm.ID,
				SenderID:   dm.SenderID,
				ReceiverID: dm.ReceiverID,
				Text:       dm.Text,
				ImageURL:   dm.ImageURL,
				CreatedAt:  time.Unix(0, dm.CreatedAt).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	return messages, nil
}
