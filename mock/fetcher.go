package mock

import (
	"context"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of learnsearch.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) ([]byte, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ learnsearch.Politeness = (*Politeness)(nil)

// Politeness is a mock implementation of learnsearch.Politeness.
type Politeness struct {
	WaitFn func(ctx context.Context) error
}

func (p *Politeness) Wait(ctx context.Context) error {
	return p.WaitFn(ctx)
}
