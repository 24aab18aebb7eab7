package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.IndexClient = (*IndexClient)(nil)

// IndexClient is a mock implementation of learnsearch.IndexClient.
type IndexClient struct {
	UpsertFn func(ctx context.Context, records []learnsearch.IndexedRecord) error
	QueryFn  func(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error)
}

func (c *IndexClient) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) error {
	return c.UpsertFn(ctx, records)
}

func (c *IndexClient) Query(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error) {
	return c.QueryFn(ctx, text, limit)
}
