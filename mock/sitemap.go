package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of learnsearch.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, scope learnsearch.Scope) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, scope learnsearch.Scope) ([]string, error) {
	return s.DiscoverURLsFn(ctx, scope)
}
