package prometheus

import (
	"context"
	"time"

	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.IndexClient = (*InstrumentedIndex)(nil)

// InstrumentedIndex counts index requests and records their latency.
type InstrumentedIndex struct {
	next    learnsearch.IndexClient
	metrics *Metrics
}

// NewInstrumentedIndex wraps next with metrics.
func NewInstrumentedIndex(next learnsearch.IndexClient, m *Metrics) *InstrumentedIndex {
	return &InstrumentedIndex{next: next, metrics: m}
}

// Upsert delegates to the wrapped index.
func (x *InstrumentedIndex) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) error {
	begin := time.Now()
	err := x.next.Upsert(ctx, records)
	x.observe("upsert", begin, err)
	if err == nil {
		x.metrics.IndexRecordsTotal.Add(float64(len(records)))
	}
	return err
}

// Query delegates to the wrapped index.
func (x *InstrumentedIndex) Query(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error) {
	begin := time.Now()
	hits, err := x.next.Query(ctx, text, limit)
	x.observe("query", begin, err)
	return hits, err
}

func (x *InstrumentedIndex) observe(op string, begin time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	x.metrics.IndexDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
	x.metrics.IndexRequestsTotal.WithLabelValues(op, status).Inc()
}
