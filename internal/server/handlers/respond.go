package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/internal/server/media"
	"github.com/iudanet/gophchat/internal/server/storage"
	"github.com/iudanet/gophchat/internal/server/token"
	"github.com/iudanet/gophchat/internal/validation"
	"github.com/iudanet/gophchat/pkg/api"
)

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// writeDeliveryError переводит ошибку доменного слоя в HTTP статус
// Единственное место, где выбирается код ответа для ошибок
func writeDeliveryError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		vErr     *delivery.ValidationError
		fieldErr *validation.FieldError
		mediaErr *delivery.MediaUploadError
	)

	switch {
	case errors.As(err, &vErr):
		logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		sendError(logger, w, vErr.Error(), http.StatusBadRequest)

	case errors.As(err, &fieldErr):
		logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		sendError(logger, w, fieldErr.Error(), http.StatusBadRequest)

	case errors.As(err, &mediaErr):
		// Некорректная картинка от клиента: 400, сбой хранилища: 502
		if errors.Is(err, media.ErrInvalidData) || errors.Is(err, media.ErrTooLarge) || errors.Is(err, media.ErrUnsupportedType) {
			logger.WarnContext(ctx, "invalid image", slog.Any("error", err))
			sendError(logger, w, mediaErr.Err.Error(), http.StatusBadRequest)
			return
		}
		logger.ErrorContext(ctx, "image upload failed", slog.Any("error", err))
		sendError(logger, w, "image upload failed", http.StatusBadGateway)

	case errors.Is(err, storage.ErrUserNotFound):
		logger.WarnContext(ctx, "user not found", slog.Any("error", err))
		sendError(logger, w, "user not found", http.StatusNotFound)

	case errors.Is(err, storage.ErrUserAlreadyExists):
		sendError(logger, w, "Email already exists", http.StatusConflict)

	case errors.Is(err, token.ErrAuth):
		sendError(logger, w, "Unauthorized", http.StatusUnauthorized)

	default:
		logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
		sendError(logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// decodeBody читает JSON тело запроса с ограничением размера
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
