package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of learnsearch.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, query string, topK int) ([]*learnsearch.Document, error)
}

func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*learnsearch.Document, error) {
	return s.SearchFn(ctx, query, topK)
}

var _ learnsearch.Asker = (*Asker)(nil)

// Asker is a mock implementation of learnsearch.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	return a.AskFn(ctx, question)
}
