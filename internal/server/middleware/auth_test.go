package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophchat/internal/server/handlers"
	"github.com/iudanet/gophchat/internal/server/token"
	"github.com/iudanet/gophchat/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// testHandler is a simple handler that checks context values
func testHandler(t *testing.T, expectedUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")
		assert.Equal(t, expectedUserID, userID)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func newTestTokens(t *testing.T, secret string) (*token.Service, *testClock) {
	clock := &testClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	svc, err := token.NewService(secret, time.Hour, token.WithClock(clock.Now))
	require.NoError(t, err)
	return svc, clock
}

func issue(t *testing.T, svc *token.Service, userID string) string {
	tok, err := svc.Issue(userID)
	require.NoError(t, err)
	return tok.String()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestAuthMiddleware_Success(t *testing.T) {
	svc, _ := newTestTokens(t, "test-secret-key")
	raw := issue(t, svc, "user123")

	tests := []struct {
		prepare func(r *http.Request)
		name    string
		target  string
		opts    []AuthOption
	}{
		{
			name:    "cookie",
			target:  "/test",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: handlers.CookieName, Value: raw}) },
		},
		{
			name:    "bearer header",
			target:  "/test",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) },
		},
		{
			name:    "query parameter when allowed",
			target:  "/ws?token=" + raw,
			prepare: func(r *http.Request) {},
			opts:    []AuthOption{AllowQueryToken()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(setupTestLogger(), svc, tt.opts...)(testHandler(t, "user123"))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "OK", w.Body.String())
		})
	}
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	svc, _ := newTestTokens(t, "test-secret-key")

	handler := AuthMiddleware(setupTestLogger(), svc)(testHandler(t, "from-cookie"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: handlers.CookieName, Value: issue(t, svc, "from-cookie")})
	req.Header.Set("Authorization", "Bearer "+issue(t, svc, "from-header"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	svc, clock := newTestTokens(t, "test-secret-key")
	otherSvc, _ := newTestTokens(t, "another-secret")

	valid := issue(t, svc, "user123")
	foreign := issue(t, otherSvc, "user123")

	tests := []struct {
		prepare func(r *http.Request)
		name    string
		target  string
		message string
	}{
		{
			name:    "no token",
			target:  "/test",
			prepare: func(r *http.Request) {},
			message: "Unauthorized - No Token Provided",
		},
		{
			name:    "query token not allowed by default",
			target:  "/test?token=" + valid,
			prepare: func(r *http.Request) {},
			message: "Unauthorized - No Token Provided",
		},
		{
			name:    "invalid header format",
			target:  "/test",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			message: "Unauthorized - Malformed Token",
		},
		{
			name:    "garbage token",
			target:  "/test",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-token") },
			message: "Unauthorized - Malformed Token",
		},
		{
			name:    "wrong secret",
			target:  "/test",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: handlers.CookieName, Value: foreign}) },
			message: "Unauthorized - Invalid Token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(setupTestLogger(), svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			resp := decodeError(t, w)
			assert.Equal(t, "Unauthorized", resp.Error)
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	t.Run("expired token", func(t *testing.T) {
		handler := AuthMiddleware(setupTestLogger(), svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		clock.now = clock.now.Add(time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized - Token Expired", decodeError(t, w).Message)
	})
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=abc", nil)

	_, err := TokenFromRequest(req, false)
	assert.ErrorIs(t, err, token.ErrNoToken)

	raw, err := TokenFromRequest(req, true)
	require.NoError(t, err)
	assert.Equal(t, "abc", raw)

	req.Header.Set("Authorization", "bearer  xyz ")
	raw, err = TokenFromRequest(req, true)
	require.NoError(t, err)
	assert.Equal(t, "xyz", raw)
}
