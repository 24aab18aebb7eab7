package prometheus_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
	"github.com/sbomma1973/learnsearch/mock"
	lsprom "github.com/sbomma1973/learnsearch/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetrics(t *testing.T) (*lsprom.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return lsprom.NewMetrics(reg), reg
}

func TestInstrumentedFetcher(t *testing.T) {
	t.Parallel()

	m, _ := newMetrics(t)
	responses := map[string]error{
		"https://example.com/learn/ok":      nil,
		"https://example.com/learn/missing": &learnsearch.FetchError{URL: "missing", StatusCode: 404},
		"https://example.com/learn/down":    &learnsearch.FetchError{URL: "down", Err: errors.New("connection refused")},
	}
	inner := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) ([]byte, error) {
			if err := responses[url]; err != nil {
				return nil, err
			}
			return []byte("<html></html>"), nil
		},
	}
	fetcher := lsprom.NewInstrumentedFetcher(inner, m)

	for url := range responses {
		_, _ = fetcher.Fetch(context.Background(), url)
	}

	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(lsprom.OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(lsprom.OutcomeHTTPError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(lsprom.OutcomeError)), 0)
	assert.InDelta(t, 13, testutil.ToFloat64(m.FetchBytesTotal), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestInstrumentedIndex(t *testing.T) {
	t.Parallel()

	m, _ := newMetrics(t)
	inner := &mock.IndexClient{
		UpsertFn: func(context.Context, []learnsearch.IndexedRecord) error { return nil },
		QueryFn: func(context.Context, string, int) ([]learnsearch.Hit, error) {
			return nil, errors.New("unavailable")
		},
	}
	index := lsprom.NewInstrumentedIndex(inner, m)

	records := learnsearch.Normalize([]*learnsearch.Document{{URL: "a"}, {URL: "b"}})
	require.NoError(t, index.Upsert(context.Background(), records))
	_, err := index.Query(context.Background(), "grout", 5)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.IndexRequestsTotal.WithLabelValues("upsert", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IndexRequestsTotal.WithLabelValues("query", "error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.IndexRecordsTotal), 0)
}

func TestMetrics_ObserveProgress(t *testing.T) {
	t.Parallel()

	m, _ := newMetrics(t)
	m.ObserveProgress(crawl.ProgressEvent{Type: crawl.ProgressStarted})
	m.ObserveProgress(crawl.ProgressEvent{Type: crawl.ProgressSaved})
	m.ObserveProgress(crawl.ProgressEvent{Type: crawl.ProgressSaved})
	m.ObserveProgress(crawl.ProgressEvent{Type: crawl.ProgressFailed})
	m.ObserveProgress(crawl.ProgressEvent{Type: crawl.ProgressFinished})

	assert.InDelta(t, 2, testutil.ToFloat64(m.PagesTotal.WithLabelValues("saved")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PagesTotal.WithLabelValues("failed")), 0)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m, reg := newMetrics(t)
	m.PagesTotal.WithLabelValues("saved").Inc()

	srv := httptest.NewServer(lsprom.Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `learnsearch_crawl_pages_total{status="saved"} 1`)
}
