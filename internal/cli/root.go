package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/config"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/storage"
	"github.com/spf13/cobra"
)

// StoreOpener connects the ledger store used by a command.
// The returned func releases it.
type StoreOpener func(ctx context.Context) (domain.LedgerStore, func(), error)

// OpenConfiguredStore opens the store selected by the environment without running migrations
func OpenConfiguredStore(ctx context.Context) (domain.LedgerStore, func(), error) {
	cfg, err := config.LoadStore()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.OpenLedgerStore(ctx, cfg, false)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

type options struct {
	open   StoreOpener
	userID string
	now    func() time.Time
}

// NewRootCmd builds the ledgerctl command tree
func NewRootCmd(open StoreOpener) *cobra.Command {
	opts := &options{open: open, now: time.Now}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and move finance documents",
		Long:          `ledgerctl reads and writes users' finance documents directly in the ledger store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID == "" {
				return fmt.Errorf("--user is required")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "User ID owning the document (e.g. 'auth0|abc123')")

	root.AddCommand(
		newExportCmd(opts),
		newImportCmd(opts),
		newResetCmd(opts),
		newSummaryCmd(opts),
	)
	return root
}

// Execute runs ledgerctl against the configured store
func Execute() error {
	return NewRootCmd(OpenConfiguredStore).Execute()
}

// withStore opens the store for the duration of fn
func (o *options) withStore(ctx context.Context, fn func(store domain.LedgerStore) error) error {
	store, release, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open ledger store: %w", err)
	}
	defer release()
	return fn(store)
}
