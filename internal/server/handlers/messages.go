package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/pkg/api"
)

// Deliverer is the delivery pipeline as seen by the HTTP layer
type Deliverer interface {
	Send(ctx context.Context, in delivery.SendInput) (models.Message, error)
	FetchHistory(ctx context.Context, userID, peerID string) ([]models.Message, error)
	Contacts(ctx context.Context, userID string) ([]models.UserSummary, error)
	Online() []string
}

// MessageHandler обрабатывает запросы сообщений
type MessageHandler struct {
	logger       *slog.Logger
	pipeline     Deliverer
	maxBodyBytes int64
}

// NewMessageHandler создает новый handler для сообщений
func NewMessageHandler(logger *slog.Logger, pipeline Deliverer, maxBodyBytes int64) *MessageHandler {
	return &MessageHandler{
		logger:       logger,
		pipeline:     pipeline,
		maxBodyBytes: maxBodyBytes,
	}
}

// Users обрабатывает GET /api/messages/users
// Список всех остальных пользователей с флагом online
func (h *MessageHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.pipeline.Contacts(ctx, userID)
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	sendJSON(h.logger, w, contacts, http.StatusOK)
}

// Online обрабатывает GET /api/messages/online
func (h *MessageHandler) Online(w http.ResponseWriter, r *http.Request) {
	sendJSON(h.logger, w, api.OnlineResponse{UserIDs: h.pipeline.Online()}, http.StatusOK)
}

// History обрабатывает GET /api/messages/{peerId}
// Переписка текущего пользователя с peerId в хронологическом порядке
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Извлекаем peerId из path parameter (Go 1.22+)
	peerID := r.PathValue("peerId")

	messages, err := h.pipeline.FetchHistory(ctx, userID, peerID)
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	sendJSON(h.logger, w, messages, http.StatusOK)
}

// Send обрабатывает POST /api/messages/send/{peerId}
// Сообщение сохраняется до попытки доставки в реальном времени
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.SendMessageRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode send request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.pipeline.Send(ctx, delivery.SendInput{
		SenderID:   userID,
		ReceiverID: r.PathValue("peerId"),
		Text:       req.Text,
		Image:      req.Image,
	})
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "message sent",
		slog.Int64("message_id", msg.ID),
		slog.String("sender_id", msg.SenderID),
		slog.String("receiver_id", msg.ReceiverID),
	)

	sendJSON(h.logger, w, msg, http.StatusCreated)
}
