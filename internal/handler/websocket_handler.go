package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/service"
	ws "github.com/savemymoney/savemymoney-backend/internal/websocket"
)

// JWTValidator validates JWT tokens and returns the user ID
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *ws.Hub
	sessions       *service.SessionRegistry
	validator      JWTValidator
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *ws.Hub, sessions *service.SessionRegistry, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		sessions:       sessions,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	// Get token from query parameter
	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return NewUnauthorizedError(c, "missing token")
	}

	userID, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return NewUnauthorizedError(c, "invalid token")
	}

	// Attach the user's session so document updates reach this connection
	sess, err := h.sessions.Acquire(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err, "attach session")
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := ws.NewClient(conn, userID, h.hub, h.snapshot)
	h.hub.Register(client)

	// A session that is already synced will not publish again until the next change
	if !sess.Loading() {
		if event, ok := h.snapshot(userID); ok {
			if data, err := event.ToJSON(); err == nil {
				client.Send(data)
			}
		}
	}

	log.Info().
		Str("user_id", userID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()

	return nil
}

// snapshot describes the user's cached document for a connecting or resyncing client
func (h *WebSocketHandler) snapshot(userID string) (ws.Event, bool) {
	sess, ok := h.sessions.Get(userID)
	if !ok {
		return ws.Event{}, false
	}
	doc := sess.Document()
	if doc == nil {
		return ws.Event{}, false
	}
	return ws.DocumentSynced(doc), true
}
