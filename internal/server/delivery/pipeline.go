// Package delivery orchestrates sending and reading direct messages.
//
// A send moves through Received → Persisted → (Delivered | QueuedOffline).
// Persistence is the durability boundary: once Append succeeds the send
// succeeds, and the real-time push that follows is best effort.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/metrics"
	"github.com/iudanet/gophchat/internal/server/presence"
	"github.com/iudanet/gophchat/internal/server/storage"
)

// MediaStore uploads an encoded image and returns its public URL
type MediaStore interface {
	Upload(ctx context.Context, data string) (string, error)
}

// Presence is the read side of the presence registry
type Presence interface {
	Lookup(userID string) (presence.Handle, bool)
	Online() []string
}

// SendInput is a send request as accepted at the pipeline boundary
type SendInput struct {
	SenderID   string
	ReceiverID string
	Text       string
	Image      string // data URI или base64, пусто если картинки нет
}

// Pipeline implements send, history and contact listing
type Pipeline struct {
	users    storage.UserStorage
	messages storage.MessageStorage
	media    MediaStore
	presence Presence
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPipeline creates a new delivery pipeline
func NewPipeline(
	users storage.UserStorage,
	messages storage.MessageStorage,
	media MediaStore,
	registry Presence,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		users:    users,
		messages: messages,
		media:    media,
		presence: registry,
		metrics:  m,
		logger:   logger,
	}
}

// Send validates, uploads the image if any, persists the message and then
// pushes it to the receiver when online. Push failures are logged and never
// returned.
func (p *Pipeline) Send(ctx context.Context, in SendInput) (models.Message, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Image = strings.TrimSpace(in.Image)

	if err := validateSend(in); err != nil {
		return models.Message{}, err
	}

	if _, err := p.users.GetUserByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Message{}, fmt.Errorf("receiver %s: %w", in.ReceiverID, err)
		}
		return models.Message{}, fmt.Errorf("failed to get receiver: %w", err)
	}

	var imageURL string
	if in.Image != "" {
		url, err := p.media.Upload(ctx, in.Image)
		if err != nil {
			return models.Message{}, &MediaUploadError{Err: err}
		}
		imageURL = url
	}

	msg, err := p.messages.Append(ctx, models.NewMessage{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
		ImageURL:   imageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEmptyMessage):
			return models.Message{}, &ValidationError{Field: "text", Reason: err.Error()}
		case errors.Is(err, storage.ErrUserNotFound):
			return models.Message{}, fmt.Errorf("append message: %w", err)
		}
		return models.Message{}, fmt.Errorf("failed to persist message: %w", err)
	}
	p.metrics.MessagesSent.Inc()

	p.push(ctx, msg)

	return msg, nil
}

// push делает одну неблокирующую попытку доставки
func (p *Pipeline) push(ctx context.Context, msg models.Message) {
	handle, ok := p.presence.Lookup(msg.ReceiverID)
	if !ok {
		p.logger.DebugContext(ctx, "Receiver offline, message stored",
			slog.Int64("message_id", msg.ID),
			slog.String("receiver_id", msg.ReceiverID),
		)
		return
	}

	if err := handle.Push(models.NewMessageEvent(msg)); err != nil {
		p.metrics.PushFailures.Inc()
		p.logger.WarnContext(ctx, "Real-time push failed",
			slog.Int64("message_id", msg.ID),
			slog.String("receiver_id", msg.ReceiverID),
			slog.Any("error", err),
		)
		return
	}

	p.metrics.PushesDelivered.Inc()
}

// FetchHistory returns the conversation of userID and peerID ordered by
// createdAt then id. The peer must exist.
func (p *Pipeline) FetchHistory(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "required"}
	}
	if peerID == "" {
		return nil, &ValidationError{Field: "peerId", Reason: "required"}
	}

	if _, err := p.users.GetUserByID(ctx, peerID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("peer %s: %w", peerID, err)
		}
		return nil, fmt.Errorf("failed to get peer: %w", err)
	}

	messages, err := p.messages.ConversationBetween(ctx, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return messages, nil
}

// Contacts lists every other user with its current online flag
func (p *Pipeline) Contacts(ctx context.Context, userID string) ([]models.UserSummary, error) {
	users, err := p.users.ListUsersExcluding(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	online := lo.Keyify(p.presence.Online())

	return lo.Map(users, func(u models.UserSummary, _ int) models.UserSummary {
		_, u.Online = online[u.ID]
		return u
	}), nil
}

// Online returns the ids of users with a live real-time connection
func (p *Pipeline) Online() []string {
	return p.presence.Online()
}

func validateSend(in SendInput) error {
	if in.SenderID == "" {
		return &ValidationError{Field: "senderId", Reason: "required"}
	}
	if in.ReceiverID == "" {
		return &ValidationError{Field: "receiverId", Reason: "required"}
	}
	if in.Text == "" && in.Image == "" {
		return &ValidationError{Field: "text", Reason: "text or image required"}
	}
	return nil
}
