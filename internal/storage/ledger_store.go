package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/config"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/memory"
	"github.com/savemymoney/savemymoney-backend/internal/repository/postgres"
)

// LedgerStore is the configured domain.LedgerStore together with the
// background work and resources it owns
type LedgerStore struct {
	domain.LedgerStore
	Driver string

	run     func(ctx context.Context) error
	cleanup func()
}

// OpenLedgerStore connects the store selected by cfg.StoreDriver.
// With migrate set, pending migrations are applied before the pool is opened.
func OpenLedgerStore(ctx context.Context, cfg *config.Config, migrate bool) (*LedgerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewDocumentStore()
		log.Warn().Msg("Using in-memory ledger store; documents are lost on restart")
		return &LedgerStore{
			LedgerStore: store,
			Driver:      config.StoreDriverMemory,
			run: func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			},
			cleanup: store.Close,
		}, nil

	case config.StoreDriverPostgres:
		if migrate {
			if err := RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		log.Info().Msg("Connected to database")

		repo := postgres.NewDocumentRepository(pool)
		return &LedgerStore{
			LedgerStore: repo,
			Driver:      config.StoreDriverPostgres,
			run:         repo.Feed().Run,
			cleanup: func() {
				repo.Feed().Close()
				pool.Close()
			},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Run performs the store's background work, such as listening for change
// notifications, until ctx is cancelled
func (s *LedgerStore) Run(ctx context.Context) error {
	return s.run(ctx)
}

// Close releases the store's resources
func (s *LedgerStore) Close() {
	s.cleanup()
}
