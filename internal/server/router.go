// Package server assembles the HTTP surface of the chat server.
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/internal/server/handlers"
	"github.com/iudanet/gophchat/internal/server/metrics"
	"github.com/iudanet/gophchat/internal/server/middleware"
	"github.com/iudanet/gophchat/internal/server/storage"
	"github.com/iudanet/gophchat/internal/server/token"
)

// Tokens issues and verifies session tokens
type Tokens interface {
	Issue(userID string) (token.SessionToken, error)
	Verify(raw string) (string, error)
}

// Media uploads images and serves them back
type Media interface {
	delivery.MediaStore
	Handler() http.Handler
}

// Deps содержит все зависимости HTTP слоя
type Deps struct {
	Logger       *slog.Logger
	Tokens       Tokens
	Users        storage.UserStorage
	Pipeline     handlers.Deliverer
	Media        Media
	Realtime     handlers.Realtime
	DB           handlers.Pinger
	Metrics      *metrics.Metrics
	Limiter      *middleware.RateLimiter // nil отключает rate limiting
	Version      string
	MaxBodyBytes int64
	CookieSecure bool
}

// NewRouter registers every route and wraps the mux with recovery and logging
func NewRouter(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Logger, d.Users, d.Tokens, d.Media, d.MaxBodyBytes, d.CookieSecure)
	messageHandler := handlers.NewMessageHandler(d.Logger, d.Pipeline, d.MaxBodyBytes)
	wsHandler := handlers.NewWSHandler(d.Logger, d.Realtime)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.DB, d.Version)

	requireAuth := middleware.AuthMiddleware(d.Logger, d.Tokens)
	// Браузерный WebSocket не умеет ставить заголовки, токен может прийти в query
	requireAuthWS := middleware.AuthMiddleware(d.Logger, d.Tokens, middleware.AllowQueryToken())

	limit := func(h http.Handler) http.Handler { return h }
	if d.Limiter != nil {
		limit = middleware.RateLimitMiddleware(d.Limiter)
	}

	mux := http.NewServeMux()

	// Публичные маршруты
	mux.Handle("POST /api/auth/signup", limit(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("GET /metrics", d.Metrics.Handler())
	mux.Handle("GET /media/", d.Media.Handler())

	// Защищенные маршруты
	mux.Handle("PUT /api/auth/update-profile", requireAuth(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("GET /api/auth/check", requireAuth(http.HandlerFunc(authHandler.CheckAuth)))
	mux.Handle("GET /api/messages/users", requireAuth(http.HandlerFunc(messageHandler.Users)))
	mux.Handle("GET /api/messages/online", requireAuth(http.HandlerFunc(messageHandler.Online)))
	mux.Handle("GET /api/messages/{peerId}", requireAuth(http.HandlerFunc(messageHandler.History)))
	mux.Handle("POST /api/messages/send/{peerId}", requireAuth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /ws", requireAuthWS(http.HandlerFunc(wsHandler.Connect)))

	var h http.Handler = mux
	h = middleware.LoggingWithSkip(d.Logger, d.Metrics, []string{"/api/health", "/metrics"})(h)
	h = middleware.RecoveryMiddleware(d.Logger)(h)

	return h
}
