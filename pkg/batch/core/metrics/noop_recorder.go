package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder discards every metric.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a NoOpMetricRecorder.
func NewNoOpMetricRecorder() *NoOpMetricRecorder {
	return &NoOpMetricRecorder{}
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

func (r *NoOpMetricRecorder) RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int) {
}

func (r *NoOpMetricRecorder) RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool) {
}

func (r *NoOpMetricRecorder) RecordFallback(ctx context.Context, entity, kind string, size int) {}

func (r *NoOpMetricRecorder) RecordOutcome(ctx context.Context, entity, outcome string) {}

func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, entity, stage string, duration time.Duration) {
}
