package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/repository/memory"
	"github.com/savemymoney/savemymoney-backend/internal/repository/storage"
)

// MockLedgerStore is a domain.LedgerStore backed by the in-memory store.
// The Fn hooks and error fields inject failures.
type MockLedgerStore struct {
	*memory.DocumentStore

	mu            sync.Mutex
	SetErr        error
	GetErr        error
	SubscribeErr  error
	SetDocumentFn func(ctx context.Context, userID string, doc *domain.FinanceDocument, merge bool) error
	SetCalls      []SetCall
}

// SetCall records one SetDocument invocation
type SetCall struct {
	UserID   string
	Document *domain.FinanceDocument
	Merge    bool
}

// NewMockLedgerStore creates a new MockLedgerStore
func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{DocumentStore: memory.NewDocumentStore()}
}

// GetDocument retrieves a user's document unless GetErr is set
func (m *MockLedgerStore) GetDocument(ctx context.Context, userID string) (*domain.FinanceDocument, error) {
	m.mu.Lock()
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.DocumentStore.GetDocument(ctx, userID)
}

// SetDocument records the call and writes unless SetErr or SetDocumentFn says otherwise
func (m *MockLedgerStore) SetDocument(ctx context.Context, userID string, doc *domain.FinanceDocument, merge bool) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{UserID: userID, Document: doc.Clone(), Merge: merge})
	err := m.SetErr
	fn := m.SetDocumentFn
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if fn != nil {
		return fn(ctx, userID, doc, merge)
	}
	return m.DocumentStore.SetDocument(ctx, userID, doc, merge)
}

// Subscribe subscribes unless SubscribeErr is set
func (m *MockLedgerStore) Subscribe(ctx context.Context, userID string) (domain.Subscription, error) {
	m.mu.Lock()
	err := m.SubscribeErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.DocumentStore.Subscribe(ctx, userID)
}

// FailSets makes every following SetDocument return err; nil restores normal writes
func (m *MockLedgerStore) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetErr = err
}

// Calls returns a copy of the recorded SetDocument calls
func (m *MockLedgerStore) Calls() []SetCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SetCall, len(m.SetCalls))
	copy(out, m.SetCalls)
	return out
}

// Seed stores a document directly
func (m *MockLedgerStore) Seed(userID string, doc *domain.FinanceDocument) {
	if err := m.DocumentStore.SetDocument(context.Background(), userID, doc, false); err != nil {
		panic(fmt.Sprintf("seed document: %v", err))
	}
}

// MockExportRepository is an in-memory storage.ExportRepository
type MockExportRepository struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Modified map[string]time.Time
	UploadFn func(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// NewMockExportRepository creates a new MockExportRepository
func NewMockExportRepository() *MockExportRepository {
	return &MockExportRepository{
		Objects:  make(map[string][]byte),
		Modified: make(map[string]time.Time),
	}
}

// Upload stores an object
func (m *MockExportRepository) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, objectPath, data, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = append([]byte(nil), data...)
	m.Modified[objectPath] = time.Now()
	return objectPath, nil
}

// Download reads an object
func (m *MockExportRepository) Download(ctx context.Context, objectPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[objectPath]
	if !ok {
		return nil, storage.ErrExportNotFound
	}
	return append([]byte(nil), data...), nil
}

// List returns the objects under prefix, newest first
func (m *MockExportRepository) List(ctx context.Context, prefix string) ([]storage.ExportObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objects := make([]storage.ExportObject, 0)
	for path, data := range m.Objects {
		if strings.HasPrefix(path, prefix) {
			objects = append(objects, storage.ExportObject{Path: path, Size: int64(len(data)), LastModified: m.Modified[path]})
		}
	}
	storage.SortExports(objects)
	return objects, nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockExportRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://exports.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}
