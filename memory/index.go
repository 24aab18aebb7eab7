// Package memory provides an in-process lexical IndexClient. It ranks
// documents by term frequency weighted with inverse document frequency and
// needs no external service, which makes it useful offline and in tests.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.IndexClient = (*Index)(nil)

// Index is a concurrency-safe inverted index keyed by document url.
type Index struct {
	mu      sync.RWMutex
	entries map[string]map[string]int // term -> key -> count
	docLen  map[string]int
	docs    map[string]*learnsearch.Document
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]map[string]int),
		docLen:  make(map[string]int),
		docs:    make(map[string]*learnsearch.Document),
	}
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// Upsert indexes records, replacing any earlier record for the same url.
func (i *Index) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, rec := range records {
		key := recordKey(rec)
		if _, ok := i.docs[key]; ok {
			i.remove(key)
		}
		terms := Tokenize(rec.Text)
		i.docLen[key] = len(terms)
		i.docs[key] = rec.Metadata
		for _, term := range terms {
			postings, ok := i.entries[term]
			if !ok {
				postings = make(map[string]int)
				i.entries[term] = postings
			}
			postings[key]++
		}
	}
	return nil
}

// Query returns up to limit hits with a positive score, best first. Ties are
// broken by url so results are deterministic.
func (i *Index) Query(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	terms := Tokenize(text)
	if len(terms) == 0 || len(i.docs) == 0 {
		return []learnsearch.Hit{}, nil
	}

	n := float64(len(i.docs))
	scores := make(map[string]float64)
	for _, term := range terms {
		postings := i.entries[term]
		if len(postings) == 0 {
			continue
		}
		idf := math.Log((n+1)/(float64(len(postings))+1)) + 1
		for key, count := range postings {
			dl := i.docLen[key]
			if dl == 0 {
				continue
			}
			scores[key] += float64(count) / float64(dl) * idf
		}
	}

	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if scores[keys[a]] == scores[keys[b]] {
			return keys[a] < keys[b]
		}
		return scores[keys[a]] > scores[keys[b]]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	hits := make([]learnsearch.Hit, 0, len(keys))
	for _, key := range keys {
		hits = append(hits, learnsearch.Hit{Metadata: i.docs[key], Score: scores[key]})
	}
	return hits, nil
}

// remove drops every posting of key. Callers hold the write lock.
func (i *Index) remove(key string) {
	for term, postings := range i.entries {
		delete(postings, key)
		if len(postings) == 0 {
			delete(i.entries, term)
		}
	}
	delete(i.docLen, key)
	delete(i.docs, key)
}

// recordKey keys a record by url, falling back to its positional id.
func recordKey(rec learnsearch.IndexedRecord) string {
	if rec.Metadata != nil && rec.Metadata.URL != "" {
		return rec.Metadata.URL
	}
	return "#" + strconv.Itoa(rec.ID)
}

// Tokenize lowercases text and splits it on whitespace and punctuation.
// Tokens shorter than two characters are dropped.
func Tokenize(text string) []string {
	var tokens []string
	split := func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	}
	for _, field := range strings.FieldsFunc(text, split) {
		t := strings.ToLower(field)
		if len(t) >= 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
