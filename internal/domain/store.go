package domain

import "context"

// DocumentSnapshot is one notification of a document subscription.
// Exists is false when the user has no stored document yet; Err reports a transport failure.
type DocumentSnapshot struct {
	UserID   string
	Document *FinanceDocument
	Exists   bool
	Err      error
}

// Subscription is a live feed of snapshots for one user's document
type Subscription interface {
	Snapshots() <-chan DocumentSnapshot
	Unsubscribe()
}

// LedgerStore is the remote document database keyed by user identity
type LedgerStore interface {
	// GetDocument returns ErrDocumentNotFound when the user has no document
	GetDocument(ctx context.Context, userID string) (*FinanceDocument, error)
	// SetDocument overwrites the document, or merges into it when merge is true
	SetDocument(ctx context.Context, userID string, doc *FinanceDocument, merge bool) error
	// Subscribe delivers the current snapshot and then one per change
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}
