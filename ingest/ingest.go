// Package ingest loads stored documents, normalizes them and upserts them
// into the search index.
package ingest

import (
	"context"
	"log/slog"

	"github.com/sbomma1973/learnsearch"
	"golang.org/x/sync/errgroup"
)

// Defaults for batching.
const (
	DefaultBatchSize   = learnsearch.DefaultBatchSize
	DefaultConcurrency = 4
)

// Ingester runs the write path from the document store to the index.
type Ingester struct {
	Store  learnsearch.DocumentStore
	Index  learnsearch.IndexClient
	Logger *slog.Logger

	// BatchSize is the number of records per upsert call.
	BatchSize int
	// Concurrency bounds the number of upsert calls in flight.
	Concurrency int
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Batches   int
}

// Run loads every stored document, normalizes them and upserts the records.
// Any upsert failure fails the run with EINDEX; batches already sent stay
// in the index.
func (i *Ingester) Run(ctx context.Context) (*Result, error) {
	logger := i.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ingester")

	docs, err := i.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	records := learnsearch.Normalize(docs)
	batches := Batches(records, i.BatchSize)
	if len(batches) == 0 {
		logger.Info("nothing to ingest")
		return &Result{}, nil
	}

	concurrency := i.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for n, batch := range batches {
		g.Go(func() error {
			if err := i.Index.Upsert(gctx, batch); err != nil {
				logger.Error("upsert failed", "batch", n, "records", len(batch), "err", err)
				return wrapIndexError(err)
			}
			logger.Debug("batch upserted", "batch", n, "records", len(batch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("ingestion finished", "documents", len(records), "batches", len(batches))
	return &Result{Documents: len(records), Batches: len(batches)}, nil
}

// Batches splits records into consecutive slices of at most size records.
// A size of zero or less uses DefaultBatchSize.
func Batches(records []learnsearch.IndexedRecord, size int) [][]learnsearch.IndexedRecord {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]learnsearch.IndexedRecord
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// wrapIndexError keeps an existing EINDEX error and wraps anything else.
func wrapIndexError(err error) error {
	if learnsearch.ErrorCode(err) == learnsearch.EINDEX {
		return err
	}
	return learnsearch.Errorf(learnsearch.EINDEX, "upsert failed: %v", err)
}
