package learnsearch

// Extractor turns a fetched page into a Document and its outbound links.
type Extractor interface {
	// Extract parses raw as HTML. The document title and body fall back to
	// NoTitle and NoBody when missing. Links are absolute http(s) urls in
	// document order. Extract never fails; malformed input degrades to the
	// sentinel values and no links.
	Extract(pageURL string, raw []byte) (*Document, []string)
}
