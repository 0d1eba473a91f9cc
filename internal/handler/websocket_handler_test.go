package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTValidator is a test double for JWT validation
type mockJWTValidator struct {
	userID string
	err    error
}

func (m *mockJWTValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	return m.userID, m.err
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://savemymoney.app"}

func TestWebSocketHandler_HandleWS_MissingToken(t *testing.T) {
	env := newTestEnv(t)
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, env.sessions, &mockJWTValidator{userID: testUserID}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, h.HandleWS(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.sessions.Count())
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	env := newTestEnv(t)
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, env.sessions, &mockJWTValidator{err: errors.New("invalid token")}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, h.HandleWS(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	env := newTestEnv(t)
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, env.sessions, &mockJWTValidator{userID: testUserID}, testAllowedOrigins)

	// Request with valid token but not a WebSocket upgrade request
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	err := h.HandleWS(c)

	// gorilla/websocket returns an error when upgrade fails (no upgrade headers)
	assert.Error(t, err)
	_, attached := env.sessions.Get(testUserID)
	assert.True(t, attached, "auth passed and the session was attached before the upgrade")
}

func TestWebSocketHandler_PushesDocumentUpdates(t *testing.T) {
	env := newTestEnv(t)
	hub := websocket.NewHub()
	env.sessions.SetEventPublisher(hub)
	h := NewWebSocketHandler(hub, env.sessions, &mockJWTValidator{userID: testUserID}, testAllowedOrigins)

	env.e.GET("/ws", h.HandleWS)
	server := httptest.NewServer(env.e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(testUserID) == 1 }, time.Second, 5*time.Millisecond)

	sess, ok := env.sessions.Get(testUserID)
	require.True(t, ok)
	require.NoError(t, sess.WaitReady(context.Background()))

	doc := domain.NewFinanceDocument()
	doc.EnsureMonthBudgets("2025-04").Set("Xe", domain.BudgetEntry{Limit: 1, Icon: "🚗"})
	require.NoError(t, sess.Save(context.Background(), doc))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		if strings.Contains(string(message), `"Xe"`) {
			assert.Contains(t, string(message), string(websocket.EventTypeSynced))
			return
		}
	}
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	env := newTestEnv(t)
	h := NewWebSocketHandler(websocket.NewHub(), env.sessions, &mockJWTValidator{userID: testUserID}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://savemymoney.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			result := h.checkOrigin(req)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWebSocketHandler_SendsCurrentDocumentOnConnect(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed(testUserID, aprilDocument())
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, env.sessions, &mockJWTValidator{userID: testUserID}, testAllowedOrigins)

	_, err := env.sessions.Open(context.Background(), testUserID)
	require.NoError(t, err)

	env.e.GET("/ws", h.HandleWS)
	server := httptest.NewServer(env.e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), `"type":"document.synced"`)
	assert.Contains(t, string(message), "Phở bò")

	// An explicit resync repeats the snapshot
	require.NoError(t, conn.WriteJSON(websocket.InboundMessage{Type: websocket.MessageTypeResync}))
	_, message, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), "Phở bò")
}
