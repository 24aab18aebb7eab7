package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock implementation of learnsearch.DocumentStore.
type DocumentStore struct {
	SaveFn    func(ctx context.Context, doc *learnsearch.Document) error
	LoadAllFn func(ctx context.Context) ([]*learnsearch.Document, error)
}

func (s *DocumentStore) Save(ctx context.Context, doc *learnsearch.Document) error {
	return s.SaveFn(ctx, doc)
}

func (s *DocumentStore) LoadAll(ctx context.Context) ([]*learnsearch.Document, error) {
	return s.LoadAllFn(ctx)
}
