package crawl

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sbomma1973/learnsearch"
)

// frontierFalsePositiveRate is the Bloom filter false positive rate. A false
// positive only costs an exact-set lookup, never a skipped url.
const frontierFalsePositiveRate = 0.01

// Frontier owns the crawl queue, the visited set and the saved-page count
// for one crawl run. Urls are fetched in FIFO (breadth-first) order.
// It is safe for concurrent use, so Offer, Next and MarkVisited stay atomic
// if parallel fetchers are introduced.
type Frontier struct {
	mu      sync.Mutex
	scope   learnsearch.Scope
	budget  int
	filter  *bloom.BloomFilter
	seen    map[string]struct{} // visited or queued
	visited map[string]struct{}
	queue   []string
	saved   int
}

// NewFrontier creates an empty Frontier limited to scope that is done once
// budget pages have been saved.
func NewFrontier(scope learnsearch.Scope, budget int) *Frontier {
	expected := max(uint(budget)*50, 1)
	return &Frontier{
		scope:   scope,
		budget:  budget,
		filter:  bloom.NewWithEstimates(expected, frontierFalsePositiveRate),
		seen:    make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Offer enqueues rawURL if it is in scope and has been neither visited nor
// queued before. URL fragments are stripped first, so urls differing only
// by fragment are duplicates. Returns true if the url was enqueued.
func (f *Frontier) Offer(rawURL string) bool {
	url := stripFragment(rawURL)
	if !f.scope.InScope(url) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestString(url) {
		if _, ok := f.seen[url]; ok {
			return false
		}
	}
	f.filter.AddString(url)
	f.seen[url] = struct{}{}
	f.queue = append(f.queue, url)
	return true
}

// Next pops the oldest queued url.
// The bool result is false if the queue is empty.
func (f *Frontier) Next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return url, true
}

// MarkVisited records that rawURL has been attempted, successfully or not.
// A visited url is never enqueued again.
func (f *Frontier) MarkVisited(rawURL string) {
	url := stripFragment(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.visited[url] = struct{}{}
	if _, ok := f.seen[url]; !ok {
		f.seen[url] = struct{}{}
		f.filter.AddString(url)
	}
}

// RecordSaved counts one persisted page toward the budget.
func (f *Frontier) RecordSaved() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
}

// Done reports whether the budget is reached or the queue is exhausted.
func (f *Frontier) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved >= f.budget || len(f.queue) == 0
}

// Len returns the number of queued urls.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Saved returns the number of pages recorded as saved.
func (f *Frontier) Saved() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

// Visited returns the number of distinct urls marked visited.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// IsVisited reports whether rawURL has been marked visited.
func (f *Frontier) IsVisited(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[stripFragment(rawURL)]
	return ok
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}
