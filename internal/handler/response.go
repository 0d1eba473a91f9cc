package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/storage"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://savemymoney.app/errors/validation"
	ErrorTypeNotFound     = "https://savemymoney.app/errors/not-found"
	ErrorTypeUnauthorized = "https://savemymoney.app/errors/unauthorized"
	ErrorTypeConflict     = "https://savemymoney.app/errors/conflict"
	ErrorTypeUnavailable  = "https://savemymoney.app/errors/unavailable"
	ErrorTypeInternal     = "https://savemymoney.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnavailableError creates a service unavailable error response
func NewUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors maps validation sentinels to the request field they concern
var fieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrCategoryRequired, "category", "Category is required"},
	{domain.ErrCategoryTooLong, "category", "Category must be 100 characters or less"},
	{domain.ErrNoteTooLong, "note", "Note must be 500 characters or less"},
	{domain.ErrInvalidIcon, "icon", "Icon must be a single emoji"},
	{domain.ErrInvalidAmount, "amount", "Amount must be a non-negative integer"},
	{domain.ErrInvalidDate, "date", "Date must be in YYYY-MM-DD format"},
	{domain.ErrInvalidMonth, "month", "Month must be in YYYY-MM format"},
	{domain.ErrInvalidType, "type", "Type must be spending or income"},
}

// serviceError maps a service error to a problem details response.
// action describes the failed operation for logs and the generic 500 detail.
func serviceError(c echo.Context, err error, action string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.message},
			})
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Authentication required")
	case errors.Is(err, domain.ErrMalformedImport):
		return NewValidationError(c, "Invalid file: the import must contain budgets and transactions", nil)
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, storage.ErrExportNotFound):
		return NewNotFoundError(c, "Backup not found")
	case errors.Is(err, domain.ErrSessionClosed):
		return NewConflictError(c, "Session was closed")
	case errors.Is(err, domain.ErrBackupUnavailable):
		return NewUnavailableError(c, "Backups are not configured")
	case errors.Is(err, domain.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("action", action).Msg("Ledger store unavailable")
		return NewUnavailableError(c, "Ledger store unavailable, please retry")
	}

	log.Error().Err(err).Str("action", action).Msg("Request failed")
	return NewInternalError(c, "Failed to "+action)
}
