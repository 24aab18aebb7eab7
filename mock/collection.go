package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.CollectionService = (*CollectionService)(nil)

// CollectionService is a mock implementation of learnsearch.CollectionService.
type CollectionService struct {
	CreateCollectionFn func(ctx context.Context) error
	DeleteCollectionFn func(ctx context.Context) error
	ListCollectionsFn  func(ctx context.Context) ([]string, error)
}

func (s *CollectionService) CreateCollection(ctx context.Context) error {
	return s.CreateCollectionFn(ctx)
}

func (s *CollectionService) DeleteCollection(ctx context.Context) error {
	return s.DeleteCollectionFn(ctx)
}

func (s *CollectionService) ListCollections(ctx context.Context) ([]string, error) {
	return s.ListCollectionsFn(ctx)
}
