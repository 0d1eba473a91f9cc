package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// MutationBridge is the only write path to the ledger store.
// Writes carry no version: concurrent saves are last writer wins.
type MutationBridge struct {
	store domain.LedgerStore
}

// NewMutationBridge creates a new MutationBridge
func NewMutationBridge(store domain.LedgerStore) *MutationBridge {
	return &MutationBridge{store: store}
}

// Save replaces the user's whole document with doc
func (b *MutationBridge) Save(ctx context.Context, userID string, doc *domain.FinanceDocument) error {
	if err := b.store.SetDocument(ctx, userID, doc, false); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to save finance document")
		return fmt.Errorf("%w: save document: %w", domain.ErrTransport, err)
	}
	return nil
}

// Merge writes doc into the stored document, keeping months and categories it does not name
func (b *MutationBridge) Merge(ctx context.Context, userID string, doc *domain.FinanceDocument) error {
	if err := b.store.SetDocument(ctx, userID, doc, true); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to merge finance document")
		return fmt.Errorf("%w: merge document: %w", domain.ErrTransport, err)
	}
	return nil
}

// Load reads the stored document directly, bypassing any session
func (b *MutationBridge) Load(ctx context.Context, userID string) (*domain.FinanceDocument, error) {
	doc, err := b.store.GetDocument(ctx, userID)
	if err != nil {
		if err == domain.ErrDocumentNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load document: %w", domain.ErrTransport, err)
	}
	return doc, nil
}
