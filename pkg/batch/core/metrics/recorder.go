// Package metrics defines the observability hooks of the import engine.
// Implementations live in infrastructure/metrics.
package metrics

import (
	"context"
	"time"
)

// MetricRecorder records what happens during an import.
// entity is the profile name of the import being recorded.
type MetricRecorder interface {
	// RecordRowsNormalized records how many rows passed and failed validation.
	RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int)
	// RecordChunkWrite records one bulk call. kind is "insert" or "update".
	RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool)
	// RecordFallback records that a chunk was rewritten record by record.
	RecordFallback(ctx context.Context, entity, kind string, size int)
	// RecordOutcome counts one row outcome ("inserted", "updated", "failed").
	RecordOutcome(ctx context.Context, entity, outcome string)
	// RecordDuration records the duration of an import or a stage.
	RecordDuration(ctx context.Context, entity, stage string, duration time.Duration)
}
