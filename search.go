package learnsearch

import "context"

// DefaultTopK is the number of results returned when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// Searcher is the single entry point a presentation layer needs.
type Searcher interface {
	// Search returns at most topK documents ranked by relevance to query.
	// Returns EINVALID for an empty query and EINDEX if the index fails.
	// An empty result is not an error.
	Search(ctx context.Context, query string, topK int) ([]*Document, error)
}

// Asker answers natural language questions from search results.
type Asker interface {
	// Ask answers question using the documents most relevant to it.
	// Returns ENOTFOUND if no documents match.
	Ask(ctx context.Context, question string) (string, error)
}
