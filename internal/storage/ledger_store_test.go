package storage

import (
	"context"
	"testing"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/config"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLedgerStore_Memory(t *testing.T) {
	store, err := OpenLedgerStore(context.Background(), &config.Config{StoreDriver: config.StoreDriverMemory}, true)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, config.StoreDriverMemory, store.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Run(ctx) }()

	require.NoError(t, store.SetDocument(context.Background(), "auth0|alice", domain.NewFinanceDocument(), false))
	doc, err := store.GetDocument(context.Background(), "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, domain.NewFinanceDocument(), doc)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOpenLedgerStore_UnknownDriver(t *testing.T) {
	_, err := OpenLedgerStore(context.Background(), &config.Config{StoreDriver: "mongo"}, false)
	assert.Error(t, err)
}
