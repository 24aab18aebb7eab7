// Package crawl provides the bounded, breadth-first crawl of one site section.
// It coordinates the frontier, politeness delay, fetching, extraction and
// storage of pages.
package crawl

import (
	"context"
	"log/slog"

	"github.com/sbomma1973/learnsearch"
)

// State is a step of the crawl loop.
type State int

// Crawl loop states.
const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateEnqueueing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateEnqueueing:
		return "enqueueing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Crawler walks a site section one page at a time. Each Crawl call owns its
// own Frontier, so one Crawler can serve several independent runs.
type Crawler struct {
	Fetcher    learnsearch.Fetcher
	Extractor  learnsearch.Extractor
	Store      learnsearch.DocumentStore
	Politeness learnsearch.Politeness

	// Sitemaps, if set, seeds the frontier with in-scope sitemap urls
	// after the start url.
	Sitemaps learnsearch.SitemapService

	Logger *slog.Logger
}

// Options describes one crawl run.
type Options struct {
	StartURL string
	Scope    learnsearch.Scope
	Budget   int
}

// Result holds the outcome of a crawl run.
type Result struct {
	Saved       int // pages persisted
	Failed      int // fetch failures
	StoreFailed int // pages extracted but not persisted
	Visited     int // distinct urls attempted
	Bytes       int // raw bytes of persisted pages
}

// ProgressEvent reports progress during a crawl run.
type ProgressEvent struct {
	Type  ProgressType
	URL   string
	Saved int
	Error error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressSaved
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl fetches pages breadth-first from opts.StartURL until opts.Budget
// pages are saved or no in-scope urls remain.
//
// A failed fetch marks the url visited and is skipped; it does not count
// toward the budget and none of its links are followed. A failed save is
// logged and the page is lost, but its links are still followed.
// If ctx is canceled the partial result is returned with the context error.
func (c *Crawler) Crawl(ctx context.Context, opts Options, progress ProgressFunc) (*Result, error) {
	if opts.Budget <= 0 {
		return nil, learnsearch.Errorf(learnsearch.EINVALID, "page budget must be > 0")
	}
	if !opts.Scope.InScope(opts.StartURL) {
		return nil, learnsearch.Errorf(learnsearch.EINVALID, "start url %q is outside scope %q", opts.StartURL, opts.Scope)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "crawler")

	frontier := NewFrontier(opts.Scope, opts.Budget)
	frontier.Offer(opts.StartURL)
	c.seedFromSitemaps(ctx, frontier, opts.Scope, logger)

	notify(progress, ProgressEvent{Type: ProgressStarted, URL: opts.StartURL})

	var (
		result  Result
		state   = StateIdle
		current string
		raw     []byte
		doc     *learnsearch.Document
		links   []string
	)

	finish := func(err error) (*Result, error) {
		result.Visited = frontier.Visited()
		notify(progress, ProgressEvent{Type: ProgressFinished, Saved: result.Saved})
		logger.Info("crawl finished",
			"saved", result.Saved,
			"failed", result.Failed,
			"store_failed", result.StoreFailed,
			"visited", result.Visited,
			"queued", frontier.Len(),
		)
		return &result, err
	}

	for state != StateDone {
		switch state {
		case StateIdle:
			if frontier.Done() {
				state = StateDone
				continue
			}
			current, _ = frontier.Next()
			state = StateFetching

		case StateFetching:
			if c.Politeness != nil {
				if err := c.Politeness.Wait(ctx); err != nil {
					return finish(err)
				}
			}
			body, err := c.Fetcher.Fetch(ctx, current)
			frontier.MarkVisited(current)
			if err != nil {
				if ctx.Err() != nil {
					return finish(ctx.Err())
				}
				result.Failed++
				logger.Warn("fetch failed", "url", current, "err", err)
				notify(progress, ProgressEvent{Type: ProgressFailed, URL: current, Saved: result.Saved, Error: err})
				state = StateIdle
				continue
			}
			raw = body
			state = StateExtracting

		case StateExtracting:
			doc, links = c.Extractor.Extract(current, raw)
			if err := c.Store.Save(ctx, doc); err != nil {
				result.StoreFailed++
				logger.Error("save failed", "url", current, "err", err)
				notify(progress, ProgressEvent{Type: ProgressFailed, URL: current, Saved: result.Saved, Error: err})
			} else {
				frontier.RecordSaved()
				result.Saved++
				result.Bytes += len(raw)
				logger.Debug("page saved", "url", current, "title", doc.Title, "bytes", len(raw))
				notify(progress, ProgressEvent{Type: ProgressSaved, URL: current, Saved: result.Saved})
			}
			raw = nil
			state = StateEnqueueing

		case StateEnqueueing:
			added := 0
			for _, link := range links {
				if frontier.Offer(link) {
					added++
				}
			}
			logger.Debug("links enqueued", "url", current, "found", len(links), "added", added)
			links = nil
			state = StateIdle
		}
	}

	return finish(nil)
}

// seedFromSitemaps offers sitemap urls to the frontier. Discovery failures
// are logged and the crawl proceeds from the start url alone.
func (c *Crawler) seedFromSitemaps(ctx context.Context, frontier *Frontier, scope learnsearch.Scope, logger *slog.Logger) {
	if c.Sitemaps == nil {
		return
	}
	urls, err := c.Sitemaps.DiscoverURLs(ctx, scope)
	if err != nil {
		logger.Warn("sitemap discovery failed", "scope", scope.String(), "err", err)
		return
	}
	added := 0
	for _, u := range urls {
		if frontier.Offer(u) {
			added++
		}
	}
	logger.Info("sitemap seeded", "found", len(urls), "added", added)
}

func notify(progress ProgressFunc, event ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
