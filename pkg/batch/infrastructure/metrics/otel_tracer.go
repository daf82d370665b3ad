package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
	logger "github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// TracerName is the instrumentation scope of sheetload spans.
const TracerName = "github.com/tigerroll/sheetload"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer on provider.
func NewOpenTelemetryTracer(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: provider.Tracer(TracerName)}
}

// StartImportSpan starts the root span of one import.
func (t *OpenTelemetryTracer) StartImportSpan(ctx context.Context, entity string, rows int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "import "+entity, trace.WithAttributes(
		attribute.String("sheetload.entity", entity),
		attribute.Int("sheetload.rows", rows),
	))
	logger.Debugf("Tracer: started import span %s for '%s'.", span.SpanContext().SpanID(), entity)
	return ctx, func() { span.End() }
}

// StartChunkSpan starts a child span around one chunk.
func (t *OpenTelemetryTracer) StartChunkSpan(ctx context.Context, entity, kind string, size int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, kind+" chunk", trace.WithAttributes(
		attribute.String("sheetload.entity", entity),
		attribute.String("sheetload.kind", kind),
		attribute.Int("sheetload.chunk.size", size),
	))
	return ctx, func() { span.End() }
}

// RecordError records an error in the current span.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("sheetload.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, v interface{}) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	case bool:
		return attribute.Bool(key, val)
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
