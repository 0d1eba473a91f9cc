package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// maxDocumentSize bounds request bodies that carry a whole document
const maxDocumentSize = 5 << 20

// ClientDisconnector closes a user's live connections
type ClientDisconnector interface {
	Disconnect(userID string)
}

// DocumentHandler handles whole-document HTTP requests
type DocumentHandler struct {
	sessionScope
	clients ClientDisconnector
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(sessions *service.SessionRegistry, clients ClientDisconnector) *DocumentHandler {
	return &DocumentHandler{
		sessionScope: sessionScope{sessions: sessions},
		clients:      clients,
	}
}

// GetDocument handles GET /api/v1/document
func (h *DocumentHandler) GetDocument(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	return c.JSON(http.StatusOK, sess.Document())
}

// ReplaceDocument handles PUT /api/v1/document
func (h *DocumentHandler) ReplaceDocument(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentSize))
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	doc, err := service.ParseImport(body)
	if err != nil {
		return serviceError(c, err, "replace document")
	}

	if err := sess.Save(c.Request().Context(), doc); err != nil {
		return serviceError(c, err, "replace document")
	}

	log.Info().Str("user_id", sess.UserID()).Msg("Finance document replaced")
	return c.JSON(http.StatusOK, doc)
}

// MergeDocument handles PATCH /api/v1/document. Months present in the body replace the stored ones.
func (h *DocumentHandler) MergeDocument(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	var patch domain.FinanceDocument
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, maxDocumentSize)).Decode(&patch); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := sess.Merge(c.Request().Context(), &patch); err != nil {
		return serviceError(c, err, "merge document")
	}

	log.Info().Str("user_id", sess.UserID()).Msg("Finance document merged")
	return c.NoContent(http.StatusNoContent)
}

// Logout handles POST /api/v1/session/logout. The session is detached and live connections closed.
func (h *DocumentHandler) Logout(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	h.sessions.Release(userID)
	if h.clients != nil {
		h.clients.Disconnect(userID)
	}

	log.Info().Str("user_id", userID).Msg("User logged out")
	return c.NoContent(http.StatusNoContent)
}
