// Package http provides the plain HTTP Fetcher and the sitemap-based
// SitemapService. Neither executes JavaScript.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sbomma1973/learnsearch"
)

// DefaultTimeout bounds one fetch, including reading the body.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// maxRedirects matches the net/http default, which a custom CheckRedirect
// replaces.
const maxRedirects = 10

var _ learnsearch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw page bytes with GET requests carrying a fixed
// User-Agent header.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	scope     *learnsearch.Scope
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithScope rejects redirects whose target is outside scope. The rejected
// fetch fails with a FetchError wrapping learnsearch.ErrOutOfScope.
func WithScope(scope learnsearch.Scope) Option {
	return func(f *Fetcher) {
		f.scope = &scope
	}
}

// WithClient replaces the underlying HTTP client. The client's own Timeout
// is overwritten by the fetcher timeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultTimeout,
		userAgent: learnsearch.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	f.client.Timeout = f.timeout
	if f.scope != nil {
		f.client.CheckRedirect = f.checkRedirect
	}
	return f
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if target := req.URL.String(); !f.scope.InScope(target) {
		return fmt.Errorf("%w: %s", learnsearch.ErrOutOfScope, target)
	}
	return nil
}

// Fetch returns the body of url. Transport failures, timeouts, non-2xx
// responses and rejected redirects are reported as *learnsearch.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &learnsearch.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	return body, nil
}

// Close is a no-op; http.Client needs no cleanup.
func (f *Fetcher) Close() error {
	return nil
}
