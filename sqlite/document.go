package sqlite

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements learnsearch.DocumentStore using SQLite. Each Save
// appends one row; rows are read back in insertion order.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// hashContent returns the hex xxHash of a document's combined text.
func hashContent(content string) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, xxhash.Sum64String(content))
	return hex.EncodeToString(b)
}

// Save inserts doc as a new row.
func (s *DocumentStore) Save(ctx context.Context, doc *learnsearch.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, url, title, body, content_hash, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), doc.URL, doc.Title, doc.Body, hashContent(doc.CombinedText()),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return learnsearch.Errorf(learnsearch.ESTORAGE, "save document %s: %v", doc.URL, err)
	}
	return nil
}

// LoadAll returns every stored document in insertion order.
func (s *DocumentStore) LoadAll(ctx context.Context) ([]*learnsearch.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, body
		FROM documents
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, learnsearch.Errorf(learnsearch.ESTORAGE, "load documents: %v", err)
	}
	defer rows.Close()

	docs := []*learnsearch.Document{}
	for rows.Next() {
		var doc learnsearch.Document
		if err := rows.Scan(&doc.URL, &doc.Title, &doc.Body); err != nil {
			return nil, learnsearch.Errorf(learnsearch.ESTORAGE, "scan document: %v", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, learnsearch.Errorf(learnsearch.ESTORAGE, "load documents: %v", err)
	}
	return docs, nil
}

// DuplicateContent returns how many stored records repeat the title and
// body of an earlier record, such as a page reachable under two urls.
func (s *DocumentStore) DuplicateContent(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) - COUNT(DISTINCT content_hash) FROM documents
	`).Scan(&n)
	if err != nil {
		return 0, learnsearch.Errorf(learnsearch.ESTORAGE, "count duplicate content: %v", err)
	}
	return n, nil
}
