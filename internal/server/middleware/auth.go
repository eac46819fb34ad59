package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gophchat/internal/server/handlers"
	"github.com/iudanet/gophchat/internal/server/token"
)

// TokenVerifier проверяет токен и возвращает id пользователя
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type authOptions struct {
	allowQuery bool
}

// AuthOption configures AuthMiddleware
type AuthOption func(*authOptions)

// AllowQueryToken additionally accepts the token from the "token" query
// parameter. Used for the WebSocket endpoint where browsers cannot set headers.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) {
		o.allowQuery = true
	}
}

// AuthMiddleware создает middleware для проверки токена сессии
// Порядок поиска токена: cookie jwt, заголовок Authorization: Bearer, параметр token
func AuthMiddleware(logger *slog.Logger, verifier TokenVerifier, opts ...AuthOption) func(http.Handler) http.Handler {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, err := TokenFromRequest(r, o.allowQuery)
			if err == nil {
				var userID string
				userID, err = verifier.Verify(raw)
				if err == nil {
					logger.DebugContext(ctx, "User authenticated", slog.String("user_id", userID))
					next.ServeHTTP(w, r.WithContext(handlers.WithUserID(ctx, userID)))
					return
				}
			}

			logger.WarnContext(ctx, "Authentication failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
			writeError(w, authErrorMessage(err), http.StatusUnauthorized)
		})
	}
}

// TokenFromRequest извлекает сырой токен из запроса
// Возвращает token.ErrNoToken, если токен не передан
func TokenFromRequest(r *http.Request, allowQuery bool) (string, error) {
	if c, err := r.Cookie(handlers.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Ожидаем формат: "Bearer <token>"
		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			return "", token.ErrMalformed
		}
		return strings.TrimSpace(raw), nil
	}

	if allowQuery {
		if raw := r.URL.Query().Get("token"); raw != "" {
			return raw, nil
		}
	}

	return "", token.ErrNoToken
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrNoToken):
		return "Unauthorized - No Token Provided"
	case errors.Is(err, token.ErrExpired):
		return "Unauthorized - Token Expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "Unauthorized - Invalid Token"
	}
	return "Unauthorized - Malformed Token"
}
