package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/feed"
)

// DocumentStore implements domain.LedgerStore in process memory.
// Documents are kept encoded so readers never share state with writers.
type DocumentStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	broker *feed.Broker
}

// NewDocumentStore creates an empty DocumentStore
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:   make(map[string][]byte),
		broker: feed.NewBroker(),
	}
}

// GetDocument retrieves a user's document
func (s *DocumentStore) GetDocument(ctx context.Context, userID string) (*domain.FinanceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(userID)
}

// SetDocument overwrites the document, or merges into it when merge is true
func (s *DocumentStore) SetDocument(ctx context.Context, userID string, doc *domain.FinanceDocument, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := doc
	if merge {
		base, err := s.load(userID)
		if err != nil && err != domain.ErrDocumentNotFound {
			return err
		}
		next = domain.MergeDocuments(base, doc)
	}
	if next == nil {
		next = &domain.FinanceDocument{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	s.docs[userID] = data

	stored, err := decode(data)
	if err != nil {
		return err
	}
	s.broker.Publish(domain.DocumentSnapshot{UserID: userID, Document: stored, Exists: true})
	return nil
}

// Subscribe delivers the current snapshot and then one per write
func (s *DocumentStore) Subscribe(ctx context.Context, userID string) (domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Hold the lock so no write can be published between registration and the first snapshot
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.broker.Add(ctx, userID)
	doc, err := s.load(userID)
	switch {
	case err == domain.ErrDocumentNotFound:
		s.broker.Deliver(sub, domain.DocumentSnapshot{UserID: userID})
	case err != nil:
		sub.Unsubscribe()
		return nil, err
	default:
		s.broker.Deliver(sub, domain.DocumentSnapshot{UserID: userID, Document: doc, Exists: true})
	}
	return sub, nil
}

// Delete removes a user's document without notifying subscribers
func (s *DocumentStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, userID)
}

// Raw returns the stored encoding of a user's document
func (s *DocumentStore) Raw(userID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[userID]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// SubscriberCount returns the number of live subscriptions of a user
func (s *DocumentStore) SubscriberCount(userID string) int {
	return s.broker.SubscriberCount(userID)
}

// Close ends every subscription
func (s *DocumentStore) Close() {
	s.broker.Close()
}

func (s *DocumentStore) load(userID string) (*domain.FinanceDocument, error) {
	data, ok := s.docs[userID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return decode(data)
}

func decode(data []byte) (*domain.FinanceDocument, error) {
	var doc domain.FinanceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
