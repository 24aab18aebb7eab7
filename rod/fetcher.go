// Package rod provides a learnsearch.Fetcher that renders pages in headless
// Chrome, for sites whose links or text are produced by JavaScript.
package rod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sbomma1973/learnsearch"
)

// DefaultTimeout bounds one page render.
const DefaultTimeout = 10 * time.Second

var _ learnsearch.Fetcher = (*Fetcher)(nil)

var errClosed = errors.New("browser fetcher closed")

// Fetcher returns the rendered HTML of a page. Chrome's memory only grows
// over a long crawl, so the browser process is relaunched after a fixed
// number of pages. It is safe for concurrent use.
type Fetcher struct {
	timeout      time.Duration
	userAgent    string
	scope        *learnsearch.Scope
	recycleAfter int
	logger       *slog.Logger

	mu       sync.Mutex
	proc     *browser
	rendered int // pages opened on proc
	inflight int
	closed   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-page render timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent the browser reports.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithScope rejects pages whose final url, after redirects and client-side
// navigation, is outside scope.
func WithScope(scope learnsearch.Scope) Option {
	return func(f *Fetcher) {
		f.scope = &scope
	}
}

// WithRecycleAfter sets how many pages one browser process renders before
// it is relaunched. Values below one keep the default.
func WithRecycleAfter(pages int) Option {
	return func(f *Fetcher) {
		if pages > 0 {
			f.recycleAfter = pages
		}
	}
}

// WithLogger sets the logger for browser launches and recycles.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher launches a browser and returns a Fetcher using it.
// Close must be called when the Fetcher is no longer needed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:      DefaultTimeout,
		userAgent:    learnsearch.DefaultUserAgent,
		recycleAfter: learnsearch.DefaultRenderRecycle,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "rod")

	proc, err := launchBrowser()
	if err != nil {
		return nil, err
	}
	f.proc = proc
	f.logger.Debug("browser launched", "pid", proc.launcher.PID())
	return f, nil
}

// Fetch navigates to url, waits for the load event and returns the rendered
// HTML. A non-2xx document response or a page that ends up outside the
// scope is reported as a FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	proc, err := f.acquire()
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	defer f.release()

	page, err := proc.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}

	status := 0
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	waitResponse()
	if err := ctx.Err(); err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	if status != 0 && (status < 200 || status > 299) {
		return nil, &learnsearch.FetchError{URL: url, StatusCode: status}
	}

	if err := page.WaitLoad(); err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}

	if f.scope != nil {
		info, err := page.Info()
		if err != nil {
			return nil, &learnsearch.FetchError{URL: url, Err: err}
		}
		if !f.scope.InScope(info.URL) {
			return nil, &learnsearch.FetchError{URL: url, Err: fmt.Errorf("%w: %s", learnsearch.ErrOutOfScope, info.URL)}
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &learnsearch.FetchError{URL: url, Err: err}
	}
	return []byte(html), nil
}

// Close shuts the browser down. It is safe to call more than once.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.proc == nil {
		return nil
	}
	err := f.proc.close()
	f.proc = nil
	return err
}

// acquire returns the browser for one page, relaunching it first when the
// page count is reached and no other page is open on it.
func (f *Fetcher) acquire() (*browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, errClosed
	}
	if f.proc != nil && f.rendered >= f.recycleAfter && f.inflight == 0 {
		f.logger.Info("recycling browser", "pages", f.rendered, "pid", f.proc.launcher.PID())
		if err := f.proc.close(); err != nil {
			f.logger.Warn("closing browser", "err", err)
		}
		f.proc = nil
	}
	if f.proc == nil {
		proc, err := launchBrowser()
		if err != nil {
			return nil, err
		}
		f.proc = proc
		f.rendered = 0
		f.logger.Debug("browser launched", "pid", proc.launcher.PID())
	}
	f.rendered++
	f.inflight++
	return f.proc, nil
}

func (f *Fetcher) release() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
}

// browser is one headless Chrome process and the connection to it.
type browser struct {
	*rod.Browser
	launcher *launcher.Launcher
}

func launchBrowser() (*browser, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &browser{Browser: b, launcher: l}, nil
}

func (b *browser) close() error {
	err := b.Browser.Close()
	b.launcher.Kill()
	return err
}
