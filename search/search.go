// Package search implements the query service over an IndexClient.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.Searcher = (*Service)(nil)

// Service answers free-text queries with ranked documents.
type Service struct {
	index  learnsearch.IndexClient
	logger *slog.Logger
}

// NewService creates a Service backed by index.
func NewService(index learnsearch.IndexClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{index: index, logger: logger.With("component", "search")}
}

// Search returns the metadata of the best matching documents, best first.
// A topK of zero or less uses learnsearch.DefaultTopK.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]*learnsearch.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, learnsearch.Errorf(learnsearch.EINVALID, "query must not be empty")
	}
	if topK <= 0 {
		topK = learnsearch.DefaultTopK
	}

	hits, err := s.index.Query(ctx, query, topK)
	if err != nil {
		s.logger.Error("search failed", "query", query, "err", err)
		if learnsearch.ErrorCode(err) == learnsearch.EINDEX {
			return nil, err
		}
		return nil, learnsearch.Errorf(learnsearch.EINDEX, "search failed: %v", err)
	}

	if len(hits) > topK {
		hits = hits[:topK]
	}
	docs := make([]*learnsearch.Document, 0, len(hits))
	for _, h := range hits {
		if h.Metadata == nil {
			continue
		}
		docs = append(docs, h.Metadata)
	}
	s.logger.Debug("search finished", "query", query, "top_k", topK, "results", len(docs))
	return docs, nil
}
