package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbomma1973/learnsearch"
	main "github.com/sbomma1973/learnsearch/cmd/learnsearch"
	"github.com/sbomma1973/learnsearch/memory"
	"github.com/sbomma1973/learnsearch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite serves a two-page section under /learn/ plus one page outside it.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/learn/": `<html><head><title>Learn</title></head><body>
			<p>Start here.</p>
			<a href="/learn/grout">Grout</a>
			<a href="/other/x">Elsewhere</a>
		</body></html>`,
		"/learn/grout": `<html><head><title>Cleaning grout</title></head><body>
			<p>Scrub grout lines with a soft brush.</p>
			<a href="/learn/">Back</a>
		</body></html>`,
		"/other/x": `<html><head><title>Other</title></head><body>grout grout grout</body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	require.NoError(t, m.Close())
	return stdout.String(), stderr.String(), err
}

func TestMain_Run_CrawlIngestSearch(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{learnsearch.StoreDriverFS, learnsearch.StoreDriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			srv := newSite(t)
			cfg := learnsearch.NewConfig()
			cfg.Store.Driver = driver
			cfg.Store.Path = filepath.Join(t.TempDir(), "store")
			if driver == learnsearch.StoreDriverSQLite {
				cfg.Store.Path += ".db"
			}
			cfg.Log.Level = "error"
			index := memory.NewIndex()

			stdout, _, err := run(t, &main.Main{Config: cfg},
				"crawl", "--start-url", srv.URL+"/learn/", "--delay", "0")
			require.NoError(t, err)
			assert.Contains(t, stdout, "Saved 2 pages")

			stdout, _, err = run(t, &main.Main{Config: cfg, Index: index}, "ingest")
			require.NoError(t, err)
			assert.Contains(t, stdout, "Ingested 2 documents")
			assert.Equal(t, 2, index.Len())

			stdout, _, err = run(t, &main.Main{Config: cfg, Index: index}, "search", "scrub", "brush")
			require.NoError(t, err)
			assert.Contains(t, stdout, "Found 1 results.")
			assert.Contains(t, stdout, "1. Cleaning grout")
			assert.Contains(t, stdout, srv.URL+"/learn/grout")
			assert.NotContains(t, stdout, "/other/x")

			stdout, _, err = run(t, &main.Main{Config: cfg}, "search", "--local", "start")
			require.NoError(t, err)
			assert.Contains(t, stdout, "1. Learn")
		})
	}
}

func TestMain_Run_SearchEmptyQuery(t *testing.T) {
	t.Parallel()

	cfg := learnsearch.NewConfig()
	cfg.Log.Level = "error"
	queried := false
	index := &mock.IndexClient{
		QueryFn: func(context.Context, string, int) ([]learnsearch.Hit, error) {
			queried = true
			return nil, nil
		},
	}

	_, stderr, err := run(t, &main.Main{Config: cfg, Index: index}, "search", "   ")

	require.Error(t, err)
	assert.Equal(t, learnsearch.EINVALID, learnsearch.ErrorCode(err))
	assert.Contains(t, stderr, "error:")
	assert.False(t, queried)
}

func TestMain_Run_CrawlRequiresStartURL(t *testing.T) {
	t.Parallel()

	cfg := learnsearch.NewConfig()
	cfg.Store.Path = t.TempDir()

	_, stderr, err := run(t, &main.Main{Config: cfg}, "crawl")

	require.Error(t, err)
	assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
	assert.Contains(t, stderr, "crawl.start_url required")
}

func TestMain_Run_IngestRequiresQdrantSettings(t *testing.T) {
	t.Parallel()

	cfg := learnsearch.NewConfig()
	cfg.Store.Path = t.TempDir()

	_, stderr, err := run(t, &main.Main{Config: cfg}, "ingest")

	require.Error(t, err)
	assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
	assert.Contains(t, stderr, "Hint:")
}

func TestMain_Run_AskRequiresGeminiKey(t *testing.T) {
	t.Parallel()

	cfg := learnsearch.NewConfig()
	cfg.Store.Path = t.TempDir()

	_, stderr, err := run(t, &main.Main{Config: cfg, Index: memory.NewIndex()}, "ask", "why?")

	require.Error(t, err)
	assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
	assert.Contains(t, stderr, "GEMINI_API_KEY")
}

func TestMain_Run_LoadsConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  page_budget: 3\n"), 0o644))

	_, stderr, err := run(t, main.NewMain(), "--config", path, "crawl")

	require.Error(t, err)
	assert.Contains(t, stderr, "crawl.start_url required")
}

func TestMain_Run_MissingConfigFile(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, main.NewMain(), "--config", filepath.Join(t.TempDir(), "nope.yml"), "ingest")

	require.Error(t, err)
	assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
	assert.Contains(t, stderr, "not found")
}
