package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	mu    sync.Mutex
	docs  map[string]*domain.FinanceDocument
	err   error
	calls int
}

func (l *fakeLoader) load(_ context.Context, userID string) (*domain.FinanceDocument, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	doc, ok := l.docs[userID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (l *fakeLoader) set(userID string, doc *domain.FinanceDocument, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.docs[userID] = doc
	l.err = err
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{docs: make(map[string]*domain.FinanceDocument)}
}

func await(t *testing.T, sub domain.Subscription) domain.DocumentSnapshot {
	t.Helper()
	select {
	case snap := <-sub.Snapshots():
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return domain.DocumentSnapshot{}
	}
}

func TestChangeFeed_SubscribeDeliversInitialSnapshot(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)
	defer f.Close()

	sub, err := f.Subscribe(context.Background(), "alice")
	require.NoError(t, err)

	snap := await(t, sub)
	assert.Equal(t, "alice", snap.UserID)
	assert.False(t, snap.Exists)
	assert.NoError(t, snap.Err)
}

func TestChangeFeed_SubscribeFailureIsReturned(t *testing.T) {
	loader := newFakeLoader()
	loader.err = errors.New("connection refused")
	f := NewChangeFeed(nil, loader.load)

	sub, err := f.Subscribe(context.Background(), "alice")
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 0, f.broker.SubscriberCount("alice"))
}

func TestChangeFeed_RefreshPublishesLatestDocument(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)
	defer f.Close()

	sub, err := f.Subscribe(context.Background(), "alice")
	require.NoError(t, err)
	await(t, sub)

	doc := domain.NewFinanceDocument()
	doc.EnsureMonthBudgets("2025-04").Set("Xe", domain.BudgetEntry{Limit: 5, Icon: "🚗"})
	loader.set("alice", doc, nil)
	f.refresh(context.Background(), "alice")

	snap := await(t, sub)
	require.True(t, snap.Exists)
	assert.Equal(t, []string{"Xe"}, snap.Document.MonthBudgets("2025-04").Keys())
}

func TestChangeFeed_RefreshSkipsUsersWithoutSubscribers(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)

	f.refresh(context.Background(), "nobody")

	assert.Equal(t, 0, loader.calls)
}

func TestChangeFeed_RefreshErrorReachesSubscriber(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)
	defer f.Close()

	sub, err := f.Subscribe(context.Background(), "alice")
	require.NoError(t, err)
	await(t, sub)

	loader.set("alice", nil, errors.New("timeout"))
	f.refresh(context.Background(), "alice")

	assert.ErrorIs(t, await(t, sub).Err, domain.ErrTransport)
}

func TestChangeFeed_ResyncRefreshesEverySubscribedUser(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)
	defer f.Close()

	alice, err := f.Subscribe(context.Background(), "alice")
	require.NoError(t, err)
	bob, err := f.Subscribe(context.Background(), "bob")
	require.NoError(t, err)
	await(t, alice)
	await(t, bob)

	loader.set("alice", domain.NewFinanceDocument(), nil)
	loader.set("bob", domain.NewFinanceDocument(), nil)
	f.resync(context.Background())

	assert.True(t, await(t, alice).Exists)
	assert.True(t, await(t, bob).Exists)
}

func lockCount(f *ChangeFeed) int {
	f.locksMu.Lock()
	defer f.locksMu.Unlock()
	return len(f.locks)
}

func TestChangeFeed_LocksAreDroppedWhenIdle(t *testing.T) {
	loader := newFakeLoader()
	f := NewChangeFeed(nil, loader.load)
	defer f.Close()

	sub, err := f.Subscribe(context.Background(), "alice")
	require.NoError(t, err)
	await(t, sub)
	f.refresh(context.Background(), "alice")
	await(t, sub)
	assert.Equal(t, 0, lockCount(f))

	loader.set("bob", nil, errors.New("connection refused"))
	_, err = f.Subscribe(context.Background(), "bob")
	require.Error(t, err)
	assert.Equal(t, 0, lockCount(f))
}

func TestChangeFeed_LockIsSharedWhileContended(t *testing.T) {
	f := NewChangeFeed(nil, newFakeLoader().load)
	defer f.Close()

	unlock := f.lock("alice")

	acquired := make(chan struct{})
	go func() {
		release := f.lock("alice")
		close(acquired)
		release()
	}()

	require.Eventually(t, func() bool {
		f.locksMu.Lock()
		defer f.locksMu.Unlock()
		return f.locks["alice"] != nil && f.locks["alice"].refs == 2
	}, time.Second, time.Millisecond)

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held lock")
	default:
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second caller never acquired the lock")
	}
	require.Eventually(t, func() bool { return lockCount(f) == 0 }, time.Second, time.Millisecond)
}

func TestDefaultBackOff_NeverGivesUp(t *testing.T) {
	b := defaultBackOff()
	for i := 0; i < 50; i++ {
		assert.Greater(t, b.NextBackOff(), time.Duration(0))
	}
}
