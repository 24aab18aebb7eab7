package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
	"github.com/sbomma1973/learnsearch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

// flakyFetcher fails with errs in order, then succeeds.
func flakyFetcher(calls *int, errs ...error) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(context.Context, string) ([]byte, error) {
			*calls++
			if *calls <= len(errs) {
				return nil, errs[*calls-1]
			}
			return []byte("<html>ok</html>"), nil
		},
	}
}

func TestRetryingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first try", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls), fastDelays, nil, nil)

		body, err := f.Fetch(context.Background(), "https://example.com/learn/")

		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", string(body))
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transport errors and 5xx", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls,
			&learnsearch.FetchError{URL: "u", Err: errors.New("connection reset")},
			&learnsearch.FetchError{URL: "u", StatusCode: 503},
			&learnsearch.FetchError{URL: "u", StatusCode: 429},
		), fastDelays, nil, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.NoError(t, err)
		assert.Equal(t, 4, calls)
	})

	t.Run("does not retry 404", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls,
			&learnsearch.FetchError{URL: "u", StatusCode: 404},
		), fastDelays, nil, nil)

		_, err := f.Fetch(context.Background(), "u")

		var fe *learnsearch.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 404, fe.StatusCode)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when retries run out", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fail := &learnsearch.FetchError{URL: "u", StatusCode: 500}
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls, fail, fail, fail, fail, fail), fastDelays, nil, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.ErrorIs(t, err, fail)
		assert.Equal(t, 4, calls)
	})

	t.Run("nil delays disables retry", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls, errors.New("boom")), nil, nil, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) ([]byte, error) {
				calls++
				cancel()
				return nil, errors.New("timeout")
			},
		}
		f := crawl.NewRetryingFetcher(inner, []time.Duration{time.Hour}, nil, nil)

		_, err := f.Fetch(ctx, "u")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("waits for politeness before every retry", func(t *testing.T) {
		t.Parallel()

		calls, waits := 0, 0
		var order []string
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) ([]byte, error) {
				calls++
				order = append(order, "fetch")
				if calls < 3 {
					return nil, &learnsearch.FetchError{URL: "u", StatusCode: 503}
				}
				return []byte("ok"), nil
			},
		}
		pace := &mock.Politeness{
			WaitFn: func(context.Context) error {
				waits++
				order = append(order, "wait")
				return nil
			},
		}
		f := crawl.NewRetryingFetcher(inner, fastDelays, pace, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.NoError(t, err)
		assert.Equal(t, 2, waits)
		assert.Equal(t, []string{"fetch", "wait", "fetch", "wait", "fetch"}, order)
	})

	t.Run("retries share the politeness rate", func(t *testing.T) {
		t.Parallel()

		var stamps []time.Time
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) ([]byte, error) {
				stamps = append(stamps, time.Now())
				return nil, &learnsearch.FetchError{URL: "u", StatusCode: 500}
			},
		}
		pace := crawl.NewPoliteness(50 * time.Millisecond)
		require.NoError(t, pace.Wait(context.Background()))

		f := crawl.NewRetryingFetcher(inner, []time.Duration{time.Millisecond}, pace, nil)
		_, err := f.Fetch(context.Background(), "u")

		require.Error(t, err)
		require.Len(t, stamps, 2)
		assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 40*time.Millisecond)
	})

	t.Run("politeness error stops retrying", func(t *testing.T) {
		t.Parallel()

		calls := 0
		pace := &mock.Politeness{
			WaitFn: func(context.Context) error { return context.Canceled },
		}
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls, errors.New("reset")), fastDelays, pace, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("does not retry redirects out of scope", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f := crawl.NewRetryingFetcher(flakyFetcher(&calls,
			&learnsearch.FetchError{URL: "u", Err: fmt.Errorf("%w: https://other.com/", learnsearch.ErrOutOfScope)},
		), fastDelays, nil, nil)

		_, err := f.Fetch(context.Background(), "u")

		require.ErrorIs(t, err, learnsearch.ErrOutOfScope)
		assert.Equal(t, 1, calls)
	})
}
