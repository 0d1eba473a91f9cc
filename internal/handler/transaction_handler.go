package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// TransactionHandler handles transaction HTTP requests
type TransactionHandler struct {
	sessionScope
	transactionService *service.TransactionService
	now                func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(sessions *service.SessionRegistry, transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		sessionScope:       sessionScope{sessions: sessions},
		transactionService: transactionService,
		now:                time.Now,
	}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Type     string `json:"type" validate:"required,txtype"`
	Amount   *int64 `json:"amount" validate:"required,min=0"`
	Category string `json:"category" validate:"required,max=100"`
	Date     string `json:"date" validate:"omitempty,isodate"`
	Note     string `json:"note" validate:"max=500"`
}

// TransactionResponse represents a recorded transaction in API responses
type TransactionResponse struct {
	domain.TransactionRecord
	Type  domain.TransactionType `json:"type"`
	Month domain.MonthKey        `json:"month"`
}

// CreateTransaction handles POST /api/v1/transactions. Date defaults to today.
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req CreateTransactionRequest
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

	date := req.Date
	if date == "" {
		date = h.now().Format(domain.ISODateLayout)
	}

	record, month, err := h.transactionService.AddTransaction(c.Request().Context(), sess, service.NewTransaction{
		Type:     domain.TransactionType(req.Type),
		Amount:   *req.Amount,
		Category: req.Category,
		Date:     date,
		Note:     req.Note,
	})
	if err != nil {
		return serviceError(c, err, "create transaction")
	}

	log.Info().Str("user_id", sess.UserID()).Str("transaction_id", record.ID).Str("month", string(month)).Msg("Transaction created")
	return c.JSON(http.StatusCreated, TransactionResponse{
		TransactionRecord: *record,
		Type:              domain.TransactionType(req.Type),
		Month:             month,
	})
}

// DeleteTransaction handles DELETE /api/v1/months/:month/transactions/:type/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	month, err := monthParam(c)
	if err != nil {
		return serviceError(c, err, "delete transaction")
	}
	txType := domain.TransactionType(c.Param("type"))
	id := c.Param("id")

	sess, err := h.open(c)
	if err != nil {
		return serviceError(c, err, "load document")
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), sess, month, txType, id); err != nil {
		return serviceError(c, err, "delete transaction")
	}

	log.Info().Str("user_id", sess.UserID()).Str("transaction_id", id).Str("month", string(month)).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}
