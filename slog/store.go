package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.DocumentStore = (*LoggingDocumentStore)(nil)

// LoggingDocumentStore wraps a DocumentStore with logging. Saves log at
// debug level since a crawl performs one per page.
type LoggingDocumentStore struct {
	next   learnsearch.DocumentStore
	logger *slog.Logger
}

// NewLoggingDocumentStore creates a new LoggingDocumentStore.
func NewLoggingDocumentStore(next learnsearch.DocumentStore, logger *slog.Logger) *LoggingDocumentStore {
	return &LoggingDocumentStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the result.
func (s *LoggingDocumentStore) Save(ctx context.Context, doc *learnsearch.Document) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("document save",
			"url", doc.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, doc)
}

// duplicateCounter is implemented by stores that hash document content.
type duplicateCounter interface {
	DuplicateContent(ctx context.Context) (int, error)
}

// LoadAll delegates to the wrapped store and logs the document count. Stores
// that hash content also report how many records repeat earlier content.
func (s *LoggingDocumentStore) LoadAll(ctx context.Context) (docs []*learnsearch.Document, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"count", len(docs),
			"duration", time.Since(begin),
			"err", err,
		}
		if dc, ok := s.next.(duplicateCounter); ok && err == nil {
			if n, derr := dc.DuplicateContent(ctx); derr != nil {
				s.logger.Warn("counting duplicate documents", "err", derr)
			} else {
				attrs = append(attrs, "duplicates", n)
			}
		}
		s.logger.Info("document load", attrs...)
	}(time.Now())
	return s.next.LoadAll(ctx)
}
