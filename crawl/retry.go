package crawl

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.Fetcher = (*RetryingFetcher)(nil)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// RetryingFetcher retries transient fetch failures with a fixed backoff
// schedule. Transport errors, 429 and 5xx responses are transient; any other
// status, such as 404, and redirects out of scope are returned after the
// first attempt.
type RetryingFetcher struct {
	next       learnsearch.Fetcher
	delays     []time.Duration
	politeness learnsearch.Politeness
	logger     *slog.Logger
}

// NewRetryingFetcher wraps next. One retry is made per entry in delays, so a
// nil or empty delays disables retrying. Each retry waits on politeness after
// its backoff; pass the Crawler's Politeness so retries share its rate.
// A nil politeness only applies the backoff.
func NewRetryingFetcher(next learnsearch.Fetcher, delays []time.Duration, politeness learnsearch.Politeness, logger *slog.Logger) *RetryingFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingFetcher{
		next:       next,
		delays:     delays,
		politeness: politeness,
		logger:     logger.With("component", "retry"),
	}
}

// Fetch attempts url up to len(delays)+1 times.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := f.next.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt >= len(f.delays) || !transient(err) {
			return nil, lastErr
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		f.logger.Debug("retrying fetch", "url", url, "attempt", attempt+2, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delays[attempt]):
		}
		if f.politeness != nil {
			if err := f.politeness.Wait(ctx); err != nil {
				return nil, err
			}
		}
	}
}

// Close delegates to the wrapped fetcher.
func (f *RetryingFetcher) Close() error {
	return f.next.Close()
}

func transient(err error) bool {
	var fe *learnsearch.FetchError
	if !errors.As(err, &fe) {
		return true
	}
	switch {
	case errors.Is(fe.Err, learnsearch.ErrOutOfScope):
		return false
	case fe.StatusCode == 0:
		return !errors.Is(fe.Err, context.Canceled)
	case fe.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return fe.StatusCode >= 500
	}
}
