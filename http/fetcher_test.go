package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sbomma1973/learnsearch"
	lshttp "github.com/sbomma1973/learnsearch/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body bytes from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		fetcher := lshttp.NewFetcher()
		defer fetcher.Close()

		body, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("<html><body>Hello World</body></html>"), body)
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		fetcher := lshttp.NewFetcher(lshttp.WithUserAgent("learnsearch-test/1.0"))
		_, err := fetcher.Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "learnsearch-test/1.0", got)
	})

	t.Run("defaults user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		_, err := lshttp.NewFetcher().Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, learnsearch.DefaultUserAgent, got)
	})

	t.Run("accepts any 2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNonAuthoritativeInfo)
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		body, err := lshttp.NewFetcher().Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
	})

	t.Run("returns FetchError for non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		_, err := lshttp.NewFetcher().Fetch(context.Background(), server.URL+"/missing")

		var fe *learnsearch.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Equal(t, server.URL+"/missing", fe.URL)
		assert.Equal(t, learnsearch.EFETCH, learnsearch.ErrorCode(err))
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := lshttp.NewFetcher(lshttp.WithTimeout(10 * time.Millisecond))
		_, err := fetcher.Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.Equal(t, learnsearch.EFETCH, learnsearch.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := lshttp.NewFetcher().Fetch(ctx, server.URL)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		fetcher := lshttp.NewFetcher(lshttp.WithTimeout(100 * time.Millisecond))
		_, err := fetcher.Fetch(context.Background(), "http://non-existent-host.invalid/page")

		require.Error(t, err)
		assert.Equal(t, learnsearch.EFETCH, learnsearch.ErrorCode(err))
	})
}

func TestFetcher_Fetch_redirects(t *testing.T) {
	t.Parallel()

	newSite := func(t *testing.T) (*httptest.Server, learnsearch.Scope) {
		t.Helper()

		other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<title>OTHER SITE</title>"))
		}))
		t.Cleanup(other.Close)

		mux := http.NewServeMux()
		mux.HandleFunc("/learn/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/learn/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/learn/new", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<title>New</title>"))
		})
		mux.HandleFunc("/learn/away", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, other.URL+"/learn/x", http.StatusFound)
		})
		mux.HandleFunc("/learn/up", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/other/", http.StatusFound)
		})
		mux.HandleFunc("/other/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<title>Other section</title>"))
		})
		site := httptest.NewServer(mux)
		t.Cleanup(site.Close)

		scope, err := learnsearch.NewScope(site.URL + "/learn/")
		require.NoError(t, err)
		return site, scope
	}

	t.Run("follows redirect inside scope", func(t *testing.T) {
		t.Parallel()

		site, scope := newSite(t)
		body, err := lshttp.NewFetcher(lshttp.WithScope(scope)).Fetch(context.Background(), site.URL+"/learn/old")

		require.NoError(t, err)
		assert.Equal(t, "<title>New</title>", string(body))
	})

	t.Run("rejects redirect to another host", func(t *testing.T) {
		t.Parallel()

		site, scope := newSite(t)
		body, err := lshttp.NewFetcher(lshttp.WithScope(scope)).Fetch(context.Background(), site.URL+"/learn/away")

		require.Error(t, err)
		assert.Nil(t, body)
		assert.ErrorIs(t, err, learnsearch.ErrOutOfScope)
		assert.Equal(t, learnsearch.EFETCH, learnsearch.ErrorCode(err))

		var fe *learnsearch.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, site.URL+"/learn/away", fe.URL)
	})

	t.Run("rejects redirect out of the path prefix", func(t *testing.T) {
		t.Parallel()

		site, scope := newSite(t)
		_, err := lshttp.NewFetcher(lshttp.WithScope(scope)).Fetch(context.Background(), site.URL+"/learn/up")

		assert.ErrorIs(t, err, learnsearch.ErrOutOfScope)
	})

	t.Run("follows any redirect without a scope", func(t *testing.T) {
		t.Parallel()

		site, _ := newSite(t)
		body, err := lshttp.NewFetcher().Fetch(context.Background(), site.URL+"/learn/away")

		require.NoError(t, err)
		assert.Equal(t, "<title>OTHER SITE</title>", string(body))
	})
}

func TestFetcher_Close(t *testing.T) {
	t.Parallel()

	assert.NoError(t, lshttp.NewFetcher().Close())
}
