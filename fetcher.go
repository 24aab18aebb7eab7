package learnsearch

import (
	"context"
	"errors"
	"fmt"
)

// ErrOutOfScope is wrapped by a FetchError when a fetch is redirected or
// navigated to a url outside the crawl scope. Such fetches are not retried.
var ErrOutOfScope = errors.New("redirected out of scope")

// Fetcher retrieves the raw body of one url.
type Fetcher interface {
	// Fetch issues a single request for url and returns the response body.
	// Any non-2xx status or transport failure is returned as a *FetchError.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// FetchError reports a failed fetch of one url.
type FetchError struct {
	URL        string
	StatusCode int // zero for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Politeness spaces out consecutive requests against the target site.
type Politeness interface {
	// Wait blocks until the next request may be issued.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}
