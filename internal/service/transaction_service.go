package service

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// NewTransaction is the input of AddTransaction
type NewTransaction struct {
	Type     domain.TransactionType
	Amount   int64
	Category string
	Date     string
	Note     string
}

// TransactionService handles transaction business logic
type TransactionService struct {
	newID func() (uuid.UUID, error)
}

// NewTransactionService creates a new TransactionService
func NewTransactionService() *TransactionService {
	return &TransactionService{newID: uuid.NewV7}
}

// AddTransaction records a transaction in the month of its date
func (s *TransactionService) AddTransaction(ctx context.Context, sess DocumentSession, input NewTransaction) (*domain.TransactionRecord, domain.MonthKey, error) {
	if !input.Type.IsValid() {
		return nil, "", domain.ErrInvalidType
	}
	if input.Amount < 0 {
		return nil, "", domain.ErrInvalidAmount
	}
	category, err := validateCategory(input.Category)
	if err != nil {
		return nil, "", err
	}
	date, err := domain.ParseISODate(input.Date)
	if err != nil {
		return nil, "", err
	}
	if utf8.RuneCountInString(input.Note) > domain.MaxNoteLength {
		return nil, "", domain.ErrNoteTooLong
	}

	id, err := s.newID()
	if err != nil {
		return nil, "", err
	}
	record := domain.TransactionRecord{
		ID:       id.String(),
		Amount:   input.Amount,
		Category: category,
		Date:     date.Format(domain.ISODateLayout),
	}
	if input.Note != "" {
		note := input.Note
		record.Note = &note
	}
	month, err := domain.MonthKeyOf(record.Date)
	if err != nil {
		return nil, "", err
	}

	doc, err := editableDocument(sess)
	if err != nil {
		return nil, "", err
	}
	doc.EnsureMonth(month).Append(input.Type, record)

	if err := sess.Save(ctx, doc); err != nil {
		return nil, "", err
	}
	return &record, month, nil
}

// DeleteTransaction removes a transaction from a month
func (s *TransactionService) DeleteTransaction(ctx context.Context, sess DocumentSession, month domain.MonthKey, t domain.TransactionType, id string) error {
	if !t.IsValid() {
		return domain.ErrInvalidType
	}

	doc, err := editableDocument(sess)
	if err != nil {
		return err
	}
	ledger, ok := doc.Transactions[month]
	if !ok || ledger == nil || !ledger.Remove(t, id) {
		return domain.ErrTransactionNotFound
	}

	return sess.Save(ctx, doc)
}
