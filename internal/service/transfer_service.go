package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/storage"
)

const (
	exportContentType = "application/json"
	backupURLExpiry   = 15 * time.Minute
)

// BackupResult describes a stored export
type BackupResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// TransferService handles export, import, reset and backups of finance documents
type TransferService struct {
	exports storage.ExportRepository
	now     func() time.Time
}

// NewTransferService creates a new TransferService. exports may be nil when backups are disabled.
func NewTransferService(exports storage.ExportRepository) *TransferService {
	return &TransferService{
		exports: exports,
		now:     time.Now,
	}
}

// Export encodes the session's document as a JSON file
func (s *TransferService) Export(sess DocumentSession) ([]byte, error) {
	doc := sess.Document()
	if doc == nil {
		return nil, domain.ErrSessionClosed
	}
	return EncodeExport(doc)
}

// Import replaces the session's document with an exported one. Malformed payloads are rejected whole.
func (s *TransferService) Import(ctx context.Context, sess DocumentSession, payload []byte) (*domain.FinanceDocument, error) {
	doc, err := ParseImport(payload)
	if err != nil {
		return nil, err
	}
	if err := sess.Save(ctx, doc); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", sess.UserID()).Msg("Finance document imported")
	return doc, nil
}

// Reset writes the empty document. The record is kept, so no default document is recreated.
func (s *TransferService) Reset(ctx context.Context, sess DocumentSession) error {
	if err := sess.Save(ctx, &domain.FinanceDocument{}); err != nil {
		return err
	}

	log.Info().Str("user_id", sess.UserID()).Msg("Finance document reset")
	return nil
}

// Backup stores an export in object storage and returns a temporary download URL
func (s *TransferService) Backup(ctx context.Context, sess DocumentSession) (*BackupResult, error) {
	if s.exports == nil {
		return nil, domain.ErrBackupUnavailable
	}
	data, err := s.Export(sess)
	if err != nil {
		return nil, err
	}

	path, err := s.exports.Upload(ctx, storage.ExportPath(sess.UserID(), s.now()), data, exportContentType)
	if err != nil {
		return nil, err
	}
	url, err := s.exports.GeneratePresignedURL(ctx, path, backupURLExpiry)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", sess.UserID()).Str("path", path).Msg("Finance document backed up")
	return &BackupResult{Path: path, URL: url}, nil
}

// ListBackups returns a user's stored exports, newest first
func (s *TransferService) ListBackups(ctx context.Context, userID string) ([]storage.ExportObject, error) {
	if s.exports == nil {
		return nil, domain.ErrBackupUnavailable
	}
	return s.exports.List(ctx, storage.ExportPrefix(userID))
}

// RestoreBackup imports one of the user's stored exports
func (s *TransferService) RestoreBackup(ctx context.Context, sess DocumentSession, path string) (*domain.FinanceDocument, error) {
	if s.exports == nil {
		return nil, domain.ErrBackupUnavailable
	}
	// Only the user's own exports can be restored
	if !strings.HasPrefix(path, storage.ExportPrefix(sess.UserID())) {
		return nil, storage.ErrExportNotFound
	}

	data, err := s.exports.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, sess, data)
}

// EncodeExport renders a document as an indented JSON object. Both top-level keys are
// always written, including for a reset document, so every export can be imported.
func EncodeExport(doc *domain.FinanceDocument) ([]byte, error) {
	out := doc.Clone()
	if out == nil {
		out = &domain.FinanceDocument{}
	}
	if out.Budgets == nil {
		out.Budgets = make(map[domain.MonthKey]*domain.CategoryBudgets)
	}
	if out.Transactions == nil {
		out.Transactions = make(map[domain.MonthKey]*domain.MonthLedger)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ParseImport decodes an exported document. Both budgets and transactions must be present and not null.
func ParseImport(payload []byte) (*domain.FinanceDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedImport, err)
	}
	if fields == nil {
		return nil, domain.ErrMalformedImport
	}
	for _, key := range []string{"budgets", "transactions"} {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrMalformedImport, key)
		}
	}

	var doc domain.FinanceDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedImport, err)
	}
	for month := range doc.Transactions {
		doc.EnsureMonth(month)
	}
	return &doc, nil
}
