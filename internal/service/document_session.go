package service

import (
	"context"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// DocumentSession is what feature operations need from a session:
// a snapshot to clone-and-edit and a whole-document save
type DocumentSession interface {
	UserID() string
	Document() *domain.FinanceDocument
	Save(ctx context.Context, doc *domain.FinanceDocument) error
}

var _ DocumentSession = (*Session)(nil)

// editableDocument returns a private copy of the session's document to mutate
func editableDocument(sess DocumentSession) (*domain.FinanceDocument, error) {
	doc := sess.Document()
	if doc == nil {
		return nil, domain.ErrSessionClosed
	}
	return doc, nil
}
