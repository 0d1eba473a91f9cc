package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// Broker fans document snapshots out to the subscribers of each user.
// It is safe for concurrent use.
type Broker struct {
	// users maps user ID to its live subscriptions
	users map[string]map[*Subscription]struct{}
	mu    sync.RWMutex
}

// NewBroker creates a new Broker instance
func NewBroker() *Broker {
	return &Broker{
		users: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscription receives the snapshots of one user's document.
// Only the latest undelivered snapshot is kept: a slow reader skips intermediate states.
type Subscription struct {
	broker *Broker
	userID string
	ch     chan domain.DocumentSnapshot
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// Snapshots returns the receive channel; it is closed after Unsubscribe
func (s *Subscription) Snapshots() <-chan domain.DocumentSnapshot {
	return s.ch
}

// Unsubscribe stops delivery and closes the channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.remove(s)

		s.mu.Lock()
		s.closed = true
		close(s.done)
		close(s.ch)
		s.mu.Unlock()
	})
}

// UserID returns the user the subscription belongs to
func (s *Subscription) UserID() string {
	return s.userID
}

func (s *Subscription) deliver(snap domain.DocumentSnapshot) {
	snap.Document = snap.Document.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
		return
	default:
	}
	// Drop the stale snapshot, the new one supersedes it
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// Add registers a subscription for a user. It is removed when ctx is done or on Unsubscribe.
func (b *Broker) Add(ctx context.Context, userID string) *Subscription {
	sub := &Subscription{
		broker: b,
		userID: userID,
		ch:     make(chan domain.DocumentSnapshot, 1),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.users[userID] == nil {
		b.users[userID] = make(map[*Subscription]struct{})
	}
	b.users[userID][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.done:
		}
	}()

	log.Debug().Str("user_id", userID).Msg("Document subscription added")
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.users[sub.userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.users, sub.userID)
		}
	}

	log.Debug().Str("user_id", sub.userID).Msg("Document subscription removed")
}

// Deliver sends a snapshot to a single subscription
func (b *Broker) Deliver(sub *Subscription, snap domain.DocumentSnapshot) {
	sub.deliver(snap)
}

// Publish sends a snapshot to every subscription of snap.UserID
func (b *Broker) Publish(snap domain.DocumentSnapshot) {
	b.mu.RLock()
	subs, ok := b.users[snap.UserID]
	if !ok || len(subs) == 0 {
		b.mu.RUnlock()
		return
	}

	// Copy subscriptions to avoid holding the lock during delivery
	subsCopy := make([]*Subscription, 0, len(subs))
	for sub := range subs {
		subsCopy = append(subsCopy, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subsCopy {
		sub.deliver(snap)
	}
}

// PublishError reports a transport failure to every subscription of every user
func (b *Broker) PublishError(err error) {
	for _, userID := range b.Users() {
		b.Publish(domain.DocumentSnapshot{UserID: userID, Err: err})
	}
}

// Users returns the IDs of users with at least one subscription
func (b *Broker) Users() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	users := make([]string, 0, len(b.users))
	for userID := range b.users {
		users = append(users, userID)
	}
	return users
}

// SubscriberCount returns the number of live subscriptions of a user
func (b *Broker) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.users[userID])
}

// Close unsubscribes everyone
func (b *Broker) Close() {
	b.mu.RLock()
	all := make([]*Subscription, 0)
	for _, subs := range b.users {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range all {
		sub.Unsubscribe()
	}
}
