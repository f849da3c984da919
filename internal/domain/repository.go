package domain

import "context"

// MetricRepository is the append-only telemetry store. Record writes one
// immutable event; Query is the read path used by the analytics aggregator.
// Implementations must be safe for concurrent use.
type MetricRepository interface {
	Record(ctx context.Context, record *MetricRecord) error
	Query(ctx context.Context, filter MetricFilter) ([]MetricRecord, error)
}
