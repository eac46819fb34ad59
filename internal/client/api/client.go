package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/pkg/api"
)

// sessionCookie имя cookie, в которой сервер возвращает токен
const sessionCookie = "jwt"

// ErrNoSessionCookie is returned when signup or login succeeded but the
// response carried no session cookie
var ErrNoSessionCookie = errors.New("server did not return a session cookie")

// Error is a non-2xx response from the server
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Session is the result of signup or login
type Session struct {
	ExpiresAt time.Time
	Token     string
	User      models.User
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	dialer     *websocket.Dialer
	baseURL    string
	now        func() time.Time
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Signup регистрирует нового пользователя и возвращает сессию
func (c *Client) Signup(ctx context.Context, req api.SignupRequest) (*Session, error) {
	session, err := c.startSession(ctx, "/api/auth/signup", req)
	if err != nil {
		return nil, fmt.Errorf("signup request failed: %w", err)
	}
	return session, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*Session, error) {
	session, err := c.startSession(ctx, "/api/auth/login", req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return session, nil
}

// Logout уведомляет сервер о выходе
func (c *Client) Logout(ctx context.Context, token string) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// CheckAuth возвращает текущего пользователя
func (c *Client) CheckAuth(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/auth/check", token, nil, &user); err != nil {
		return nil, fmt.Errorf("check auth request failed: %w", err)
	}
	return &user, nil
}

// UpdateProfilePic загружает аватар (base64 или data URI)
func (c *Client) UpdateProfilePic(ctx context.Context, token, image string) (*models.User, error) {
	var user models.User
	req := api.UpdateProfileRequest{ProfilePic: image}
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/auth/update-profile", token, req, &user); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &user, nil
}

// Users возвращает список остальных пользователей с флагом online
func (c *Client) Users(ctx context.Context, token string) ([]models.UserSummary, error) {
	var users []models.UserSummary
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/messages/users", token, nil, &users); err != nil {
		return nil, fmt.Errorf("users request failed: %w", err)
	}
	return users, nil
}

// Online возвращает id пользователей с активным подключением
func (c *Client) Online(ctx context.Context, token string) ([]string, error) {
	var resp api.OnlineResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/messages/online", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("online request failed: %w", err)
	}
	return resp.UserIDs, nil
}

// History возвращает переписку с peerID в хронологическом порядке
func (c *Client) History(ctx context.Context, token, peerID string) ([]models.Message, error) {
	var messages []models.Message
	path := "/api/messages/" + url.PathEscape(peerID)
	if _, err := c.doRequest(ctx, http.MethodGet, path, token, nil, &messages); err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	return messages, nil
}

// Send отправляет сообщение peerID
func (c *Client) Send(ctx context.Context, token, peerID string, req api.SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	path := "/api/messages/send/" + url.PathEscape(peerID)
	if _, err := c.doRequest(ctx, http.MethodPost, path, token, req, &msg); err != nil {
		return nil, fmt.Errorf("send request failed: %w", err)
	}
	return &msg, nil
}

// Listen подключается к /ws и вызывает handle для каждого события
// Блокируется до отмены ctx или разрыва соединения
func (c *Client) Listen(ctx context.Context, token string, handle func(models.Event)) error {
	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			return fmt.Errorf("websocket dial failed: %w", readError(resp))
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	// Закрываем соединение при отмене контекста, чтобы прервать ReadJSON
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()
	defer func() { _ = conn.Close() }()

	for {
		var evt models.Event
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("websocket read failed: %w", err)
		}
		handle(evt)
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	return u.String(), nil
}

// startSession выполняет signup/login и достает токен из cookie
func (c *Client) startSession(ctx context.Context, path string, body any) (*Session, error) {
	var user models.User
	resp, err := c.doRequest(ctx, http.MethodPost, path, "", body, &user)
	if err != nil {
		return nil, err
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name != sessionCookie || cookie.Value == "" {
			continue
		}

		expiresAt := cookie.Expires
		if cookie.MaxAge > 0 {
			expiresAt = c.now().Add(time.Duration(cookie.MaxAge) * time.Second)
		}

		return &Session{User: user, Token: cookie.Value, ExpiresAt: expiresAt}, nil
	}

	return nil, ErrNoSessionCookie
}

// doRequest выполняет HTTP запрос
// Тело ответа уже прочитано и закрыто, возвращается только для заголовков
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

// readError превращает ответ с ошибкой в *Error
func readError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
		apiErr.Message = errResp.Message
	}

	return apiErr
}
