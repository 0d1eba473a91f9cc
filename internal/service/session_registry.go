package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
)

// SessionRegistry keeps one live session per user
type SessionRegistry struct {
	manager   *SubscriptionManager
	bridge    *MutationBridge
	publisher websocket.EventPublisher
	opts      SessionOptions

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates a new SessionRegistry
func NewSessionRegistry(manager *SubscriptionManager, bridge *MutationBridge, opts SessionOptions) *SessionRegistry {
	return &SessionRegistry{
		manager:   manager,
		bridge:    bridge,
		publisher: &websocket.NoOpPublisher{},
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// SetEventPublisher sets the publisher sessions push document events to
func (r *SessionRegistry) SetEventPublisher(publisher websocket.EventPublisher) {
	r.publisher = publisher
}

// Acquire returns the user's session, attaching one if needed.
// A session whose stream failed before delivering anything is replaced.
func (r *SessionRegistry) Acquire(ctx context.Context, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		if !s.failedBeforeReady() {
			return s, nil
		}
		log.Info().Str("user_id", userID).Msg("Replacing failed session")
		delete(r.sessions, userID)
		go s.Detach()
	}

	stream, err := r.manager.Attach(ctx, userID)
	if err != nil {
		return nil, err
	}
	s := newSession(userID, stream, r.bridge, r.publisher, r.opts)
	r.sessions[userID] = s
	return s, nil
}

// Open acquires the user's session and waits until its document is available
func (r *SessionRegistry) Open(ctx context.Context, userID string) (*Session, error) {
	s, err := r.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.WaitReady(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the user's session if one is attached
func (r *SessionRegistry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Release detaches and forgets the user's session
func (r *SessionRegistry) Release(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.Detach()
	}
}

// Count returns the number of attached sessions
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Close detaches every session
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Detach()
	}
}
