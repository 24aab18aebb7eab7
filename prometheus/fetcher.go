package prometheus

import (
	"context"
	"time"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.Fetcher = (*InstrumentedFetcher)(nil)

// InstrumentedFetcher counts fetches by outcome and records their latency.
type InstrumentedFetcher struct {
	next    learnsearch.Fetcher
	metrics *Metrics
}

// NewInstrumentedFetcher wraps next with metrics.
func NewInstrumentedFetcher(next learnsearch.Fetcher, m *Metrics) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: m}
}

// Fetch delegates to the wrapped fetcher.
func (f *InstrumentedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	begin := time.Now()
	body, err := f.next.Fetch(ctx, url)
	f.metrics.FetchDuration.Observe(time.Since(begin).Seconds())
	f.metrics.FetchesTotal.WithLabelValues(fetchOutcome(err)).Inc()
	f.metrics.FetchBytesTotal.Add(float64(len(body)))
	return body, err
}

// Close delegates to the wrapped fetcher.
func (f *InstrumentedFetcher) Close() error {
	return f.next.Close()
}
