package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upsert(t *testing.T, idx *memory.Index, docs ...*learnsearch.Document) {
	t.Helper()
	require.NoError(t, idx.Upsert(context.Background(), learnsearch.Normalize(docs)))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"how", "to", "clean", "grout", "fast"}, memory.Tokenize("How to Clean Grout, fast!"))
	assert.Equal(t, []string{"ok"}, memory.Tokenize("a OK i"))
	assert.Empty(t, memory.Tokenize("  ...  "))
}

func TestIndex_Query_ranks_by_relevance(t *testing.T) {
	t.Parallel()

	idx := memory.NewIndex()
	upsert(t, idx,
		&learnsearch.Document{URL: "u1", Title: "Grout", Body: "clean grout with baking soda grout grout"},
		&learnsearch.Document{URL: "u2", Title: "Mops", Body: "choose a mop for tile floors grout"},
		&learnsearch.Document{URL: "u3", Title: "Windows", Body: "streak free windows"},
	)

	hits, err := idx.Query(context.Background(), "grout", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "u1", hits[0].Metadata.URL)
	assert.Equal(t, "u2", hits[1].Metadata.URL)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_Query_respects_limit(t *testing.T) {
	t.Parallel()

	idx := memory.NewIndex()
	for i := 0; i < 10; i++ {
		upsert(t, idx, &learnsearch.Document{URL: fmt.Sprintf("u%02d", i), Body: "cleaning tips"})
	}

	hits, err := idx.Query(context.Background(), "cleaning", 5)
	require.NoError(t, err)
	require.Len(t, hits, 5)
	assert.Equal(t, "u00", hits[0].Metadata.URL, "ties are broken by url")
}

func TestIndex_Query_no_match_returns_empty(t *testing.T) {
	t.Parallel()

	idx := memory.NewIndex()
	upsert(t, idx, &learnsearch.Document{URL: "u1", Body: "windows"})

	hits, err := idx.Query(context.Background(), "grout", 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	hits, err = memory.NewIndex().Query(context.Background(), "grout", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Upsert_replaces_by_url(t *testing.T) {
	t.Parallel()

	idx := memory.NewIndex()
	upsert(t, idx, &learnsearch.Document{URL: "u1", Title: "Old", Body: "grout"})
	upsert(t, idx, &learnsearch.Document{URL: "u1", Title: "New", Body: "windows"})

	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Query(context.Background(), "grout", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Query(context.Background(), "windows", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "New", hits[0].Metadata.Title)
}

func TestIndex_returns_metadata_verbatim(t *testing.T) {
	t.Parallel()

	doc := &learnsearch.Document{URL: "https://example.com/learn/a", Title: "A", Body: "grout"}
	idx := memory.NewIndex()
	upsert(t, idx, doc)

	hits, err := idx.Query(context.Background(), "grout", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, doc, hits[0].Metadata)
}

func TestIndex_canceled_context(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := memory.NewIndex()
	assert.ErrorIs(t, idx.Upsert(ctx, nil), context.Canceled)
	_, err := idx.Query(ctx, "grout", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_concurrent_access(t *testing.T) {
	t.Parallel()

	idx := memory.NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, idx.Upsert(context.Background(), learnsearch.Normalize([]*learnsearch.Document{
				{URL: fmt.Sprintf("u%d", i), Body: "grout"},
			})))
		}(i)
		go func() {
			defer wg.Done()
			_, err := idx.Query(context.Background(), "grout", 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, idx.Len())
}
