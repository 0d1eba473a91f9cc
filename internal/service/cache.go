package service

import (
	"sync"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// LocalCache holds the most recently observed document of one session.
// It starts loading and leaves that state on the first Set or Clear, never re-entering it.
type LocalCache struct {
	mu      sync.RWMutex
	doc     *domain.FinanceDocument
	loading bool
	version uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewLocalCache creates an empty cache in the loading state
func NewLocalCache() *LocalCache {
	return &LocalCache{
		loading: true,
		ready:   make(chan struct{}),
	}
}

// Set stores a copy of doc as the latest document
func (c *LocalCache) Set(doc *domain.FinanceDocument) {
	c.mu.Lock()
	c.doc = doc.Clone()
	c.loading = false
	c.version++
	c.mu.Unlock()

	c.markReady()
}

// Clear drops the document and ends loading
func (c *LocalCache) Clear() {
	c.mu.Lock()
	c.doc = nil
	c.loading = false
	c.version++
	c.mu.Unlock()

	c.markReady()
}

// Snapshot returns a copy of the cached document, or nil.
// Callers may mutate the copy freely.
func (c *LocalCache) Snapshot() *domain.FinanceDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.doc.Clone()
}

// Loading reports whether nothing has been observed yet
func (c *LocalCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loading
}

// Version increments on every Set and Clear
func (c *LocalCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

// Ready is closed once loading has ended
func (c *LocalCache) Ready() <-chan struct{} {
	return c.ready
}

func (c *LocalCache) markReady() {
	c.readyOnce.Do(func() {
		close(c.ready)
	})
}
