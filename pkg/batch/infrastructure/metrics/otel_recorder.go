package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
)

// OpenTelemetryRecorder records import metrics on OTel instruments.
type OpenTelemetryRecorder struct {
	rowsNormalized metric.Int64Counter
	chunkWrites    metric.Int64Counter
	fallbacks      metric.Int64Counter
	rowOutcomes    metric.Int64Counter
	stageDuration  metric.Float64Histogram
}

// NewOpenTelemetryRecorder creates the instruments on meter.
func NewOpenTelemetryRecorder(meter metric.Meter) (*OpenTelemetryRecorder, error) {
	var err error
	r := &OpenTelemetryRecorder{}

	if r.rowsNormalized, err = meter.Int64Counter("sheetload.rows.normalized",
		metric.WithDescription("Rows checked by the normalizer."), metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}
	if r.chunkWrites, err = meter.Int64Counter("sheetload.chunk.writes",
		metric.WithDescription("Bulk write calls."), metric.WithUnit("{call}")); err != nil {
		return nil, fmt.Errorf("failed to create chunk counter: %w", err)
	}
	if r.fallbacks, err = meter.Int64Counter("sheetload.chunk.fallbacks",
		metric.WithDescription("Chunks rewritten record by record."), metric.WithUnit("{chunk}")); err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}
	if r.rowOutcomes, err = meter.Int64Counter("sheetload.row.outcomes",
		metric.WithDescription("Write outcomes per row."), metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("failed to create outcome counter: %w", err)
	}
	if r.stageDuration, err = meter.Float64Histogram("sheetload.stage.duration",
		metric.WithDescription("Duration of imports and their write stages."), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return r, nil
}

func (r *OpenTelemetryRecorder) RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int) {
	r.rowsNormalized.Add(ctx, int64(valid), metric.WithAttributes(attribute.String("entity", entity), attribute.String("result", "valid")))
	r.rowsNormalized.Add(ctx, int64(invalid), metric.WithAttributes(attribute.String("entity", entity), attribute.String("result", "invalid")))
}

func (r *OpenTelemetryRecorder) RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool) {
	r.chunkWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	))
}

func (r *OpenTelemetryRecorder) RecordFallback(ctx context.Context, entity, kind string, size int) {
	r.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity), attribute.String("kind", kind)))
}

func (r *OpenTelemetryRecorder) RecordOutcome(ctx context.Context, entity, outcome string) {
	r.rowOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity), attribute.String("outcome", outcome)))
}

func (r *OpenTelemetryRecorder) RecordDuration(ctx context.Context, entity, stage string, duration time.Duration) {
	r.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("entity", entity), attribute.String("stage", stage)))
}

var _ metrics.MetricRecorder = (*OpenTelemetryRecorder)(nil)
