package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound    = errors.New("finance document not found")
	ErrMalformedImport     = errors.New("import must be an object with budgets and transactions")
	ErrInvalidIcon         = errors.New("icon must contain only emoji")
	ErrTransport           = errors.New("ledger store unavailable")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryRequired    = errors.New("category is required")
	ErrCategoryTooLong     = errors.New("category exceeds maximum length")
	ErrNoteTooLong         = errors.New("note exceeds maximum length")
	ErrInvalidAmount       = errors.New("amount must be a non-negative integer")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidType         = errors.New("transaction type must be spending or income")
	ErrSessionClosed       = errors.New("session closed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBackupUnavailable   = errors.New("backup storage is not configured")
)

// Validation constants
const (
	MaxCategoryLength = 100
	MaxNoteLength     = 500
)
