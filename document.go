package learnsearch

import "context"

// Sentinel values used when a page has no usable title or body.
const (
	NoTitle = "No Title Found"
	NoBody  = "No Body Found"
)

// Document represents one crawled page. It is created once by an Extractor
// right after a successful fetch and never mutated afterwards.
type Document struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.URL == "" {
		return Errorf(EINVALID, "document url required")
	}
	return nil
}

// CombinedText returns the text indexed for the document: title and body
// separated by a newline.
func (d *Document) CombinedText() string {
	return d.Title + "\n" + d.Body
}

// DocumentStore persists documents as addressable records.
type DocumentStore interface {
	// Save persists a document under a store-local sequential identifier.
	// Returns ESTORAGE if the record cannot be written. A record is either
	// fully written or not visible at all.
	Save(ctx context.Context, doc *Document) error

	// LoadAll returns every persisted document in unspecified order.
	// Malformed records are skipped rather than failing the load.
	LoadAll(ctx context.Context) ([]*Document, error)
}
