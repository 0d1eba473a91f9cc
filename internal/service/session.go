package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
)

// SessionOptions configures every session of a registry
type SessionOptions struct {
	// PushOnSave stores a saved document in the cache as soon as the save succeeds,
	// before the subscription echoes it back
	PushOnSave bool
}

// Session is the explicit context of one authenticated user: its cache, its stream, its write path.
type Session struct {
	userID    string
	cache     *LocalCache
	stream    *Stream
	bridge    *MutationBridge
	publisher websocket.EventPublisher
	opts      SessionOptions

	mu       sync.Mutex
	err      error
	detached bool

	failed     chan struct{}
	failedOnce sync.Once
	pumpDone   chan struct{}
}

func newSession(userID string, stream *Stream, bridge *MutationBridge, publisher websocket.EventPublisher, opts SessionOptions) *Session {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	s := &Session{
		userID:    userID,
		cache:     NewLocalCache(),
		stream:    stream,
		bridge:    bridge,
		publisher: publisher,
		opts:      opts,
		failed:    make(chan struct{}),
		pumpDone:  make(chan struct{}),
	}
	go s.pump()
	return s
}

// pump applies stream output to the cache until the stream ends
func (s *Session) pump() {
	defer close(s.pumpDone)

	updates := s.stream.Updates()
	errs := s.stream.Errors()
	for updates != nil || errs != nil {
		select {
		case doc, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			s.apply(doc)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.fail(err)
		}
	}
}

func (s *Session) apply(doc *domain.FinanceDocument) {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.cache.Set(doc)
	s.err = nil
	s.mu.Unlock()

	s.publisher.Publish(s.userID, websocket.DocumentSynced(doc))
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.mu.Unlock()

	s.failedOnce.Do(func() {
		close(s.failed)
	})
	log.Warn().Err(err).Str("user_id", s.userID).Msg("Session stream error")
	s.publisher.Publish(s.userID, websocket.DocumentError(err))
}

// UserID returns the session's user
func (s *Session) UserID() string {
	return s.userID
}

// Document returns a copy of the cached document, or nil while loading or after Detach
func (s *Session) Document() *domain.FinanceDocument {
	return s.cache.Snapshot()
}

// Loading reports whether the first document has not arrived yet
func (s *Session) Loading() bool {
	return s.cache.Loading()
}

// Err returns the most recent stream error since the last update
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Detached reports whether Detach was called
func (s *Session) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.detached
}

// WaitReady blocks until the first document arrives, the stream fails before that, or ctx ends
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.cache.Ready():
	case <-s.failed:
		select {
		case <-s.cache.Ready():
		default:
			return s.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.Detached() {
		return domain.ErrSessionClosed
	}
	return nil
}

// failedBeforeReady reports whether the stream failed without ever delivering a document
func (s *Session) failedBeforeReady() bool {
	select {
	case <-s.cache.Ready():
		return false
	default:
	}
	select {
	case <-s.failed:
		return true
	default:
		return false
	}
}

// Save replaces the remote document with doc. A failed save leaves the cache untouched.
// With PushOnSave the saved document is cached only if no update arrived while saving;
// otherwise the cache already holds something at least as new.
func (s *Session) Save(ctx context.Context, doc *domain.FinanceDocument) error {
	if s.Detached() {
		return domain.ErrSessionClosed
	}
	version := s.cache.Version()
	if err := s.bridge.Save(ctx, s.userID, doc); err != nil {
		return err
	}

	if s.opts.PushOnSave {
		s.mu.Lock()
		if !s.detached && s.cache.Version() == version {
			s.cache.Set(doc)
		}
		s.mu.Unlock()
	}
	return nil
}

// Merge writes doc into the remote document; the change arrives through the subscription
func (s *Session) Merge(ctx context.Context, doc *domain.FinanceDocument) error {
	if s.Detached() {
		return domain.ErrSessionClosed
	}
	return s.bridge.Merge(ctx, s.userID, doc)
}

// Detach stops the subscription and clears the cache. In-flight saves are not cancelled.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.detached = true
	s.cache.Clear()
	s.err = nil
	s.mu.Unlock()

	s.stream.Close()
	<-s.pumpDone

	s.publisher.Publish(s.userID, websocket.SessionDetached())
	log.Info().Str("user_id", s.userID).Msg("Session detached")
}
