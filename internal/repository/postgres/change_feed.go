package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/feed"
)

// NotifyChannel is the channel the finance_documents trigger notifies with the changed user ID
const NotifyChannel = "finance_documents"

type loadFunc func(ctx context.Context, userID string) (*domain.FinanceDocument, error)

// ChangeFeed listens for document change notifications and pushes fresh snapshots to subscribers.
// A lost connection is reported to every subscriber and re-established with exponential backoff,
// after which every subscribed user is resynced.
type ChangeFeed struct {
	pool   *pgxpool.Pool
	load   loadFunc
	broker *feed.Broker

	// locks serializes read-then-publish per user so an older read never overtakes a newer one.
	// An entry lives only while some caller holds or waits for it.
	locksMu sync.Mutex
	locks   map[string]*userLock

	newBackOff func() backoff.BackOff
}

// NewChangeFeed creates a ChangeFeed reading documents with load
func NewChangeFeed(pool *pgxpool.Pool, load loadFunc) *ChangeFeed {
	return &ChangeFeed{
		pool:       pool,
		load:       load,
		broker:     feed.NewBroker(),
		locks:      make(map[string]*userLock),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry until the context is cancelled
	return b
}

// Subscribe registers a subscriber and delivers the current snapshot.
// A failed initial read is returned and nothing stays registered.
func (f *ChangeFeed) Subscribe(ctx context.Context, userID string) (domain.Subscription, error) {
	sub := f.broker.Add(ctx, userID)

	unlock := f.lock(userID)
	defer unlock()

	snap := f.snapshot(ctx, userID)
	if snap.Err != nil {
		sub.Unsubscribe()
		return nil, snap.Err
	}
	f.broker.Deliver(sub, snap)
	return sub, nil
}

// Run keeps a LISTEN connection open until ctx is cancelled
func (f *ChangeFeed) Run(ctx context.Context) error {
	b := f.newBackOff()
	err := backoff.RetryNotify(func() error {
		return f.listen(ctx, b)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("Change feed disconnected, retrying")
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close ends every subscription
func (f *ChangeFeed) Close() {
	f.broker.Close()
}

func (f *ChangeFeed) listen(ctx context.Context, b backoff.BackOff) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	// The LISTEN registration must not leak back into the pool
	pgConn := conn.Hijack()
	defer pgConn.Close(context.Background())

	if _, err := pgConn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	b.Reset()
	log.Info().Str("channel", NotifyChannel).Msg("Change feed listening")

	// Changes made while disconnected produced no notification for us
	f.resync(ctx)

	for {
		n, err := pgConn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			f.broker.PublishError(fmt.Errorf("%w: %w", domain.ErrTransport, err))
			return err
		}
		f.refresh(ctx, n.Payload)
	}
}

func (f *ChangeFeed) resync(ctx context.Context) {
	for _, userID := range f.broker.Users() {
		f.refresh(ctx, userID)
	}
}

// refresh reads the user's document and publishes it when anyone is subscribed
func (f *ChangeFeed) refresh(ctx context.Context, userID string) {
	if f.broker.SubscriberCount(userID) == 0 {
		return
	}

	unlock := f.lock(userID)
	defer unlock()

	snap := f.snapshot(ctx, userID)
	if snap.Err != nil {
		log.Warn().Err(snap.Err).Str("user_id", userID).Msg("Failed to read changed document")
	}
	f.broker.Publish(snap)
}

func (f *ChangeFeed) snapshot(ctx context.Context, userID string) domain.DocumentSnapshot {
	doc, err := f.load(ctx, userID)
	switch {
	case err == domain.ErrDocumentNotFound:
		return domain.DocumentSnapshot{UserID: userID}
	case err != nil:
		return domain.DocumentSnapshot{UserID: userID, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err)}
	default:
		return domain.DocumentSnapshot{UserID: userID, Document: doc, Exists: true}
	}
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (f *ChangeFeed) lock(userID string) func() {
	f.locksMu.Lock()
	l, ok := f.locks[userID]
	if !ok {
		l = &userLock{}
		f.locks[userID] = l
	}
	l.refs++
	f.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		f.locksMu.Lock()
		defer f.locksMu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(f.locks, userID)
		}
	}
}
