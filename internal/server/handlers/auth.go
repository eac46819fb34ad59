package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophchat/internal/crypto"
	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/internal/server/storage"
	"github.com/iudanet/gophchat/internal/server/token"
	"github.com/iudanet/gophchat/internal/validation"
	"github.com/iudanet/gophchat/pkg/api"
)

// CookieName имя cookie с токеном сессии
const CookieName = "jwt"

// authBodyLimit ограничение тела запросов signup/login
const authBodyLimit = 1 << 16

// TokenIssuer выпускает токены сессии
type TokenIssuer interface {
	Issue(userID string) (token.SessionToken, error)
}

// AuthHandler обрабатывает запросы авторизации и профиля
type AuthHandler struct {
	logger       *slog.Logger
	users        storage.UserStorage
	tokens       TokenIssuer
	media        delivery.MediaStore
	maxBodyBytes int64
	cookieSecure bool
}

// NewAuthHandler создает новый handler для авторизации
// maxBodyBytes ограничивает тело запроса смены аватара
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens TokenIssuer,
	media delivery.MediaStore,
	maxBodyBytes int64,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		users:        users,
		tokens:       tokens,
		media:        media,
		maxBodyBytes: maxBodyBytes,
		cookieSecure: cookieSecure,
	}
}

// Signup обрабатывает POST /api/auth/signup
// Регистрация нового пользователя, в ответе cookie с токеном
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := decodeBody(w, r, authBodyLimit, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode signup request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.Struct(req); err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "email already registered", slog.String("email", req.Email))
		}
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	if err := h.startSession(ctx, w, user.ID); err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, user, http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
// Неизвестный email и неверный пароль дают одинаковый ответ
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeBody(w, r, authBodyLimit, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.Struct(req); err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found")
			sendError(h.logger, w, "Invalid credentials", http.StatusBadRequest)
			return
		}
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("user_id", user.ID))
			sendError(h.logger, w, "Invalid credentials", http.StatusBadRequest)
			return
		}
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	if err := h.startSession(ctx, w, user.ID); err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, user, http.StatusOK)
}

// Logout обрабатывает POST и GET /api/auth/logout
// Токены stateless: сервер только удаляет cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cookieSecure,
	})

	sendJSON(h.logger, w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/auth/update-profile
// Загружает аватар в MediaStore и сохраняет его URL
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateProfileRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode profile request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.Struct(req); err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	url, err := h.media.Upload(ctx, req.ProfilePic)
	if err != nil {
		writeDeliveryError(h.logger, w, r, &delivery.MediaUploadError{Err: err})
		return
	}

	user, err := h.users.UpdateProfilePic(ctx, userID, url)
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "profile picture updated", slog.String("user_id", userID))

	sendJSON(h.logger, w, user, http.StatusOK)
}

// CheckAuth обрабатывает GET /api/auth/check
// Возвращает текущего пользователя
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		writeDeliveryError(h.logger, w, r, err)
		return
	}

	sendJSON(h.logger, w, user, http.StatusOK)
}

// startSession выпускает токен и кладет его в cookie
func (h *AuthHandler) startSession(ctx context.Context, w http.ResponseWriter, userID string) error {
	tok, err := h.tokens.Issue(userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token", slog.Any("error", err))
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok.String(),
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(tok.ExpiresAt.Sub(tok.IssuedAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cookieSecure,
	})

	return nil
}
