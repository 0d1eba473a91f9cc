package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// TransferHandler handles export, import, reset and backup HTTP requests
type TransferHandler struct {
	sessionScope
	transferService *service.TransferService
	now             func() time.Time
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(sessions *service.SessionRegistry, transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{
		sessionScope:    sessionScope{sessions: sessions},
		transferService: transferService,
		now:             time.Now,
	}
}

// RestoreBackupRequest represents the restore backup request body
type RestoreBackupRequest struct {
	Path string `json:"path" validate:"required"`
}

// Export handles GET /api/v1/export
func (h *TransferHandler) Export(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	data, err := h.transferService.Export(sess)
	if err != nil {
		return serviceError(c, err, "export document")
	}

	filename := fmt.Sprintf("savemymoney-%s.json", h.now().Format(domain.ISODateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// Import handles POST /api/v1/import. The body is an exported document.
func (h *TransferHandler) Import(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentSize))
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	doc, err := h.transferService.Import(c.Request().Context(), sess, body)
	if err != nil {
		return serviceError(c, err, "import document")
	}

	return c.JSON(http.StatusOK, doc)
}

// Reset handles POST /api/v1/reset
func (h *TransferHandler) Reset(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	if err := h.transferService.Reset(c.Request().Context(), sess); err != nil {
		return serviceError(c, err, "reset document")
	}

	return c.NoContent(http.StatusNoContent)
}

// Backup handles POST /api/v1/export/backup
func (h *TransferHandler) Backup(c echo.Context) error {
	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	result, err := h.transferService.Backup(c.Request().Context(), sess)
	if err != nil {
		return serviceError(c, err, "back up document")
	}

	return c.JSON(http.StatusCreated, result)
}

// ListBackups handles GET /api/v1/export/backups
func (h *TransferHandler) ListBackups(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	backups, err := h.transferService.ListBackups(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err, "list backups")
	}

	return c.JSON(http.StatusOK, backups)
}

// RestoreBackup handles POST /api/v1/export/backups/restore
func (h *TransferHandler) RestoreBackup(c echo.Context) error {
	var req RestoreBackupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", toValidationErrors(err))
	}

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	doc, err := h.transferService.RestoreBackup(c.Request().Context(), sess, req.Path)
	if err != nil {
		return serviceError(c, err, "restore backup")
	}

	return c.JSON(http.StatusOK, doc)
}
