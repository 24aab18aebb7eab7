// Package prometheus instruments learnsearch services with Prometheus
// collectors and serves them for scraping.
package prometheus

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeError     = "error"
)

// Metrics holds the collectors for one process. Collectors are registered
// with the Registerer passed to NewMetrics, so tests can use a private
// registry.
type Metrics struct {
	FetchesTotal       *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	FetchBytesTotal    prometheus.Counter
	PagesTotal         *prometheus.CounterVec
	IndexRequestsTotal *prometheus.CounterVec
	IndexDuration      *prometheus.HistogramVec
	IndexRecordsTotal  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnsearch_fetches_total",
				Help: "Total fetches by outcome (ok, http_error, error).",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "learnsearch_fetch_duration_seconds",
				Help:    "Fetch latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		FetchBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "learnsearch_fetch_bytes_total",
				Help: "Total response bytes fetched.",
			},
		),
		PagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnsearch_crawl_pages_total",
				Help: "Crawled pages by status (saved, failed).",
			},
			[]string{"status"},
		),
		IndexRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnsearch_index_requests_total",
				Help: "Index requests by operation and status.",
			},
			[]string{"operation", "status"},
		),
		IndexDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learnsearch_index_duration_seconds",
				Help:    "Index request latency in seconds.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		IndexRecordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "learnsearch_index_records_total",
				Help: "Total records sent to the index.",
			},
		),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.FetchBytesTotal,
		m.PagesTotal,
		m.IndexRequestsTotal,
		m.IndexDuration,
		m.IndexRecordsTotal,
	)
	return m
}

// ObserveProgress records crawl progress events. It can be chained into a
// crawl.ProgressFunc.
func (m *Metrics) ObserveProgress(event crawl.ProgressEvent) {
	switch event.Type {
	case crawl.ProgressSaved:
		m.PagesTotal.WithLabelValues("saved").Inc()
	case crawl.ProgressFailed:
		m.PagesTotal.WithLabelValues("failed").Inc()
	}
}

// Handler returns the scrape handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func fetchOutcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var fe *learnsearch.FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return OutcomeHTTPError
	}
	return OutcomeError
}
