package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

const (
	selectDocumentSQL = `SELECT data FROM finance_documents WHERE user_id = $1`

	selectDocumentForUpdateSQL = `SELECT data FROM finance_documents WHERE user_id = $1 FOR UPDATE`

	upsertDocumentSQL = `
INSERT INTO finance_documents (user_id, data)
VALUES ($1, $2::json)
ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
)

// dbtx is satisfied by both the pool and a transaction
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentRepository implements domain.LedgerStore using PostgreSQL.
// One row per user holds the whole document as JSON.
type DocumentRepository struct {
	pool *pgxpool.Pool
	feed *ChangeFeed
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	r := &DocumentRepository{pool: pool}
	r.feed = NewChangeFeed(pool, r.GetDocument)
	return r
}

// Feed returns the change feed backing Subscribe. It must be running for subscribers to see changes.
func (r *DocumentRepository) Feed() *ChangeFeed {
	return r.feed
}

// GetDocument retrieves a user's document
func (r *DocumentRepository) GetDocument(ctx context.Context, userID string) (*domain.FinanceDocument, error) {
	return getDocument(ctx, r.pool, selectDocumentSQL, userID)
}

// SetDocument overwrites the document, or merges into it when merge is true
func (r *DocumentRepository) SetDocument(ctx context.Context, userID string, doc *domain.FinanceDocument, merge bool) error {
	if !merge {
		return putDocument(ctx, r.pool, userID, doc)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	base, err := getDocument(ctx, tx, selectDocumentForUpdateSQL, userID)
	if err != nil && err != domain.ErrDocumentNotFound {
		return err
	}
	if err := putDocument(ctx, tx, userID, domain.MergeDocuments(base, doc)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Subscribe delivers the current snapshot and then one per change notification
func (r *DocumentRepository) Subscribe(ctx context.Context, userID string) (domain.Subscription, error) {
	return r.feed.Subscribe(ctx, userID)
}

func getDocument(ctx context.Context, db dbtx, query, userID string) (*domain.FinanceDocument, error) {
	var data []byte
	if err := db.QueryRow(ctx, query, userID).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return decodeDocument(data)
}

func putDocument(ctx context.Context, db dbtx, userID string, doc *domain.FinanceDocument) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, upsertDocumentSQL, userID, string(data))
	return err
}

func encodeDocument(doc *domain.FinanceDocument) ([]byte, error) {
	if doc == nil {
		doc = &domain.FinanceDocument{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (*domain.FinanceDocument, error) {
	var doc domain.FinanceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
