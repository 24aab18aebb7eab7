package mock

import "github.com/sbomma1973/learnsearch"

var _ learnsearch.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of learnsearch.Extractor.
type Extractor struct {
	ExtractFn func(pageURL string, raw []byte) (*learnsearch.Document, []string)
}

func (e *Extractor) Extract(pageURL string, raw []byte) (*learnsearch.Document, []string) {
	return e.ExtractFn(pageURL, raw)
}
