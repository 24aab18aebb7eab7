package crawl

import (
	"context"
	"time"

	"github.com/sbomma1973/learnsearch"
	"golang.org/x/time/rate"
)

var _ learnsearch.Politeness = (*Politeness)(nil)

// Politeness allows one request per delay interval using a token bucket with
// a burst of one. The first request proceeds immediately.
type Politeness struct {
	limiter *rate.Limiter
}

// NewPoliteness creates a Politeness enforcing delay between requests.
// A delay of zero or less disables waiting.
func NewPoliteness(delay time.Duration) *Politeness {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Politeness{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be issued.
// Returns an error if the context is canceled before the wait completes.
func (p *Politeness) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
