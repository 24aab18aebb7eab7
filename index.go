package learnsearch

import "context"

// IndexedRecord is the unit handed to the index: one per document.
type IndexedRecord struct {
	// ID is the position of the record within one normalization run.
	ID int `json:"id"`

	// Text is the combined text embedded by the index.
	Text string `json:"text"`

	// Metadata is the source document, returned verbatim on query.
	Metadata *Document `json:"metadata"`
}

// Hit is one ranked query result.
type Hit struct {
	Metadata *Document `json:"metadata"`
	Score    float64   `json:"score"`
}

// IndexClient is the narrow interface to the embedding and nearest-neighbour
// engine. The engine owns vector representations; callers never see them.
type IndexClient interface {
	// Upsert adds or replaces records in the index.
	Upsert(ctx context.Context, records []IndexedRecord) error

	// Query returns at most limit hits for text, best match first.
	Query(ctx context.Context, text string, limit int) ([]Hit, error)
}

// CollectionService manages the index collection itself.
type CollectionService interface {
	// CreateCollection creates the configured collection.
	CreateCollection(ctx context.Context) error

	// DeleteCollection removes the configured collection and every point in it.
	DeleteCollection(ctx context.Context) error

	// ListCollections returns the names of all collections on the server.
	ListCollections(ctx context.Context) ([]string, error)
}
