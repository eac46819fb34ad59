// Package auth manages the client session: signup, login, logout and the
// locally stored token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/gophchat/internal/client/api"
	"github.com/iudanet/gophchat/internal/client/storage"
	"github.com/iudanet/gophchat/internal/validation"
	pkgapi "github.com/iudanet/gophchat/pkg/api"
)

var (
	// ErrNotAuthenticated means no session is stored locally
	ErrNotAuthenticated = errors.New("not authenticated, run 'gophchat login' first")

	// ErrSessionExpired means the stored token is past its expiry
	ErrSessionExpired = errors.New("session expired, run 'gophchat login' again")
)

// Service предоставляет функции авторизации
type Service struct {
	api    API
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient API, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Signup регистрирует нового пользователя и сохраняет сессию
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (*storage.AuthData, error) {
	req := pkgapi.SignupRequest{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	// Проверяем на клиенте те же правила, что и сервер
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	session, err := s.api.Signup(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return s.save(ctx, session)
}

// Login выполняет аутентификацию пользователя и сохраняет сессию
func (s *Service) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	req := pkgapi.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	session, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return s.save(ctx, session)
}

// Session возвращает действующую сохраненную сессию
func (s *Service) Session(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}

	if authData.Expired(s.now()) {
		return authData, ErrSessionExpired
	}

	return authData, nil
}

// Logout выполняет выход из системы
// Удаляет локальные данные авторизации и уведомляет сервер
func (s *Service) Logout(ctx context.Context) error {
	authData, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	// Сервер только удаляет cookie, поэтому ошибка не критична
	if err := s.api.Logout(ctx, authData.Token); err != nil {
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	// Всегда удаляем локальные данные, даже если сервер недоступен
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	return nil
}

func (s *Service) save(ctx context.Context, session *api.Session) (*storage.AuthData, error) {
	authData := &storage.AuthData{
		UserID:    session.User.ID,
		FullName:  session.User.FullName,
		Email:     session.User.Email,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
	}

	if err := s.store.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return authData, nil
}
