package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.IndexClient = (*LoggingIndex)(nil)

// LoggingIndex wraps an IndexClient with logging.
type LoggingIndex struct {
	next   learnsearch.IndexClient
	logger *slog.Logger
}

// NewLoggingIndex creates a new LoggingIndex.
func NewLoggingIndex(next learnsearch.IndexClient, logger *slog.Logger) *LoggingIndex {
	return &LoggingIndex{next: next, logger: logger}
}

// Upsert logs the batch size and delegates to the wrapped index.
func (x *LoggingIndex) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) (err error) {
	defer func(begin time.Time) {
		x.logger.Info("index upsert",
			"records", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return x.next.Upsert(ctx, records)
}

// Query logs the query and hit count and delegates to the wrapped index.
func (x *LoggingIndex) Query(ctx context.Context, text string, limit int) (hits []learnsearch.Hit, err error) {
	defer func(begin time.Time) {
		x.logger.Info("index query",
			"query", text,
			"limit", limit,
			"hits", len(hits),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return x.next.Query(ctx, text, limit)
}
