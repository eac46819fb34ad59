package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophchat/internal/models"
	"github.com/iudanet/gophchat/internal/server/delivery"
	"github.com/iudanet/gophchat/internal/server/handlers"
	"github.com/iudanet/gophchat/internal/server/media"
	"github.com/iudanet/gophchat/internal/server/metrics"
	"github.com/iudanet/gophchat/internal/server/middleware"
	"github.com/iudanet/gophchat/internal/server/presence"
	"github.com/iudanet/gophchat/internal/server/realtime"
	"github.com/iudanet/gophchat/internal/server/storage/sqlite"
	"github.com/iudanet/gophchat/internal/server/token"
	"github.com/iudanet/gophchat/pkg/api"
)

type testServer struct {
	ts       *httptest.Server
	registry *presence.Registry
}

func setupTestServer(t *testing.T) *testServer {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	tokens, err := token.NewService("router-test-secret", time.Hour)
	require.NoError(t, err)

	mediaStore, err := media.NewDiskStore(t.TempDir(), "", 1<<20, logger)
	require.NoError(t, err)

	m := metrics.New()
	registry := presence.NewRegistry()
	rt := realtime.NewServer(registry, m, logger, 8, realtime.DefaultTimeouts)
	limiter := middleware.NewRateLimiter(100, time.Minute, logger)

	router := NewRouter(Deps{
		Logger:       logger,
		Tokens:       tokens,
		Users:        store,
		Pipeline:     delivery.NewPipeline(store, store, mediaStore, registry, m, logger),
		Media:        mediaStore,
		Realtime:     rt,
		DB:           store,
		Metrics:      m,
		Limiter:      limiter,
		Version:      "test",
		MaxBodyBytes: 2 << 20,
	})

	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		rt.CloseAll()
		ts.Close()
		limiter.Stop()
		_ = store.Close()
	})

	return &testServer{ts: ts, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: handlers.CookieName, Value: tok})
	}

	resp, err := s.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// signup регистрирует пользователя и возвращает его id и токен из cookie
func (s *testServer) signup(t *testing.T, name string) (string, string) {
	resp := s.do(t, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		FullName: name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))

	for _, c := range resp.Cookies() {
		if c.Name == handlers.CookieName {
			return user.ID, c.Value
		}
	}
	t.Fatal("signup did not set the session cookie")
	return "", ""
}

func TestRouter_OfflineDelivery(t *testing.T) {
	s := setupTestServer(t)
	aliceID, aliceTok := s.signup(t, "Alice")
	bobID, bobTok := s.signup(t, "Bob")

	resp := s.do(t, http.MethodPost, "/api/messages/send/"+bobID, aliceTok, api.SendMessageRequest{Text: "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sent models.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sent))
	assert.Equal(t, aliceID, sent.SenderID)
	assert.Equal(t, bobID, sent.ReceiverID)

	// Получатель был offline, но сообщение есть в истории
	resp = s.do(t, http.MethodGet, "/api/messages/"+aliceID, bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []models.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)
	assert.Equal(t, "hi", history[0].Text)
}

func TestRouter_RealtimePush(t *testing.T) {
	s := setupTestServer(t)
	aliceID, aliceTok := s.signup(t, "Alice")
	bobID, bobTok := s.signup(t, "Bob")

	wsURL := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws?token=" + bobTok
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	require.Eventually(t, func() bool {
		_, ok := s.registry.Lookup(bobID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	resp := s.do(t, http.MethodGet, "/api/messages/users", aliceTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contacts []models.UserSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, bobID, contacts[0].ID)
	assert.True(t, contacts[0].Online)

	resp = s.do(t, http.MethodPost, "/api/messages/send/"+bobID, aliceTok, api.SendMessageRequest{Text: "hey"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt models.Event
	require.NoError(t, ws.ReadJSON(&evt))
	assert.Equal(t, models.EventNewMessage, evt.Type)
	assert.Equal(t, aliceID, evt.Payload.SenderID)
	assert.Equal(t, "hey", evt.Payload.Text)
}

func TestRouter_RequiresToken(t *testing.T) {
	s := setupTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/check"},
		{http.MethodGet, "/api/messages/users"},
		{http.MethodGet, "/api/messages/someone"},
		{http.MethodPost, "/api/messages/send/someone"},
		{http.MethodGet, "/ws"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			resp := s.do(t, p.method, p.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, "Unauthorized - No Token Provided", errResp.Message)
		})
	}
}

func TestRouter_LogoutThenCheck(t *testing.T) {
	s := setupTestServer(t)
	_, tok := s.signup(t, "Alice")

	resp := s.do(t, http.MethodGet, "/api/auth/check", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Токен stateless: выход только удаляет cookie у клиента
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == handlers.CookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)
	_, aliceTok := s.signup(t, "Alice")
	bobID, _ := s.signup(t, "Bob")

	resp := s.do(t, http.MethodPost, "/api/messages/send/"+bobID, aliceTok, api.SendMessageRequest{Text: "hi"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)

	resp = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "gophchat_messages_sent_total 1")
	assert.Contains(t, string(body), `route="POST /api/messages/send/{peerId}"`)
	assert.NotContains(t, string(body), `route="GET /api/health"`)
}

func TestRouter_ProfilePictureIsServed(t *testing.T) {
	s := setupTestServer(t)
	_, tok := s.signup(t, "Alice")

	png := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
	resp := s.do(t, http.MethodPut, "/api/auth/update-profile", tok, api.UpdateProfileRequest{ProfilePic: png})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.True(t, strings.HasPrefix(user.ProfilePic, media.URLPrefix), user.ProfilePic)

	resp = s.do(t, http.MethodGet, user.ProfilePic, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	// Список загруженных файлов не отдается
	resp = s.do(t, http.MethodGet, media.URLPrefix, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
