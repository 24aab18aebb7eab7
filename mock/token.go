package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of learnsearch.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return c.CountTokensFn(ctx, text)
}
