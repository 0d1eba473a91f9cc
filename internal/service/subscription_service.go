package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// SubscriptionManager attaches to a user's remote document and republishes every change.
// A user without a document gets the default document written once and emitted.
type SubscriptionManager struct {
	store domain.LedgerStore
}

// NewSubscriptionManager creates a new SubscriptionManager
func NewSubscriptionManager(store domain.LedgerStore) *SubscriptionManager {
	return &SubscriptionManager{store: store}
}

// Stream is a live attachment to one user's document.
// Updates and Errors are closed after Close.
type Stream struct {
	userID  string
	updates chan *domain.FinanceDocument
	errors  chan error
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates delivers every observed document in arrival order
func (s *Stream) Updates() <-chan *domain.FinanceDocument {
	return s.updates
}

// Errors delivers transport failures; they are not retried here
func (s *Stream) Errors() <-chan error {
	return s.errors
}

// UserID returns the user the stream is attached to
func (s *Stream) UserID() string {
	return s.userID
}

// Close cancels the remote subscription and waits for the stream to stop.
// No update is delivered after Close returns.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.cancel()
	})
	<-s.done
}

// Attach subscribes to the user's document. A failed subscription is returned, not retried.
// The stream outlives ctx and ends only on Close.
func (m *SubscriptionManager) Attach(ctx context.Context, userID string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := m.store.Subscribe(streamCtx, userID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: subscribe: %w", domain.ErrTransport, err)
	}

	stream := &Stream{
		userID:  userID,
		updates: make(chan *domain.FinanceDocument),
		errors:  make(chan error),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go m.run(streamCtx, stream, sub)

	log.Debug().Str("user_id", userID).Msg("Attached to finance document")
	return stream, nil
}

func (m *SubscriptionManager) run(ctx context.Context, stream *Stream, sub domain.Subscription) {
	defer func() {
		sub.Unsubscribe()
		close(stream.updates)
		close(stream.errors)
		close(stream.done)
		log.Debug().Str("user_id", stream.userID).Msg("Detached from finance document")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			if snap.Err != nil {
				log.Warn().Err(snap.Err).Str("user_id", stream.userID).Msg("Finance document subscription error")
				if !send(ctx, stream.errors, snap.Err) {
					return
				}
				continue
			}

			doc := snap.Document
			if !snap.Exists {
				initialized, err := m.initialize(ctx, stream.userID)
				if err != nil {
					if !send(ctx, stream.errors, err) {
						return
					}
					continue
				}
				doc = initialized
			}
			if !send(ctx, stream.updates, doc) {
				return
			}
		}
	}
}

// initialize writes the default document for a user who has none
func (m *SubscriptionManager) initialize(ctx context.Context, userID string) (*domain.FinanceDocument, error) {
	doc := domain.NewFinanceDocument()
	if err := m.store.SetDocument(ctx, userID, doc, false); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to initialize finance document")
		return nil, fmt.Errorf("%w: initialize document: %w", domain.ErrTransport, err)
	}

	log.Info().Str("user_id", userID).Msg("Initialized finance document")
	return doc, nil
}

// send delivers v unless ctx ends first
func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
