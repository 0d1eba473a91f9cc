package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/testutil"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
	"github.com/stretchr/testify/require"
)

const testUser = "auth0|alice"

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(userID string, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newRegistry(store domain.LedgerStore, opts SessionOptions) *SessionRegistry {
	return NewSessionRegistry(NewSubscriptionManager(store), NewMutationBridge(store), opts)
}

// openSession returns a ready session of testUser
func openSession(t *testing.T, store domain.LedgerStore, opts SessionOptions) *Session {
	t.Helper()
	registry := newRegistry(store, opts)
	t.Cleanup(registry.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sess, err := registry.Open(ctx, testUser)
	require.NoError(t, err)
	return sess
}

// waitFor polls until cond holds
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func seededStore(doc *domain.FinanceDocument) *testutil.MockLedgerStore {
	store := testutil.NewMockLedgerStore()
	store.Seed(testUser, doc)
	return store
}

func budgetLimit(doc *domain.FinanceDocument, month domain.MonthKey, category string) int64 {
	entry, ok := doc.MonthBudgets(month).Get(category)
	if !ok {
		return -1
	}
	return entry.Limit
}

// stubSession is a DocumentSession without a store behind it
type stubSession struct {
	doc     *domain.FinanceDocument
	saveErr error
	saved   []*domain.FinanceDocument
}

func newStubSession(doc *domain.FinanceDocument) *stubSession {
	return &stubSession{doc: doc}
}

func (s *stubSession) UserID() string {
	return testUser
}

func (s *stubSession) Document() *domain.FinanceDocument {
	return s.doc.Clone()
}

func (s *stubSession) Save(ctx context.Context, doc *domain.FinanceDocument) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, doc.Clone())
	s.doc = doc.Clone()
	return nil
}
