package handlers

import (
	"log/slog"
	"net/http"
)

// Realtime runs a WebSocket connection for an authenticated user
type Realtime interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string)
}

// WSHandler обрабатывает GET /ws
type WSHandler struct {
	logger   *slog.Logger
	realtime Realtime
}

// NewWSHandler создает новый handler для WebSocket подключений
func NewWSHandler(logger *slog.Logger, realtime Realtime) *WSHandler {
	return &WSHandler{
		logger:   logger,
		realtime: realtime,
	}
}

// Connect upgrades the request and blocks until the socket closes
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.realtime.Serve(w, r, userID)
}
