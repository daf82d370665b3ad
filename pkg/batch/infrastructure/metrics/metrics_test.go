package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	metrics "github.com/tigerroll/sheetload/pkg/batch/infrastructure/metrics"
)

func TestPrometheusRecorder(t *testing.T) {
	ctx := context.Background()
	r := metrics.NewPrometheusRecorder()

	r.RecordRowsNormalized(ctx, "employee_group", 47, 3)
	r.RecordChunkWrite(ctx, "employee_group", "insert", 1000, true)
	r.RecordChunkWrite(ctx, "employee_group", "insert", 500, false)
	r.RecordFallback(ctx, "employee_group", "insert", 500)
	r.RecordOutcome(ctx, "employee_group", "inserted")
	r.RecordOutcome(ctx, "employee_group", "inserted")
	r.RecordOutcome(ctx, "employee_group", "failed")
	r.RecordDuration(ctx, "employee_group", "import", 250*time.Millisecond)

	families, err := r.GetRegistry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if h := m.GetHistogram(); h != nil && mf.GetName() == "sheetload_stage_duration_seconds" {
				assert.Equal(t, uint64(1), h.GetSampleCount())
				assert.InDelta(t, 0.25, h.GetSampleSum(), 1e-9)
			}
			if m.GetCounter() == nil {
				continue
			}
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "," + lp.GetName() + "=" + lp.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 47.0, values["sheetload_rows_normalized_total,entity=employee_group,result=valid"])
	assert.Equal(t, 3.0, values["sheetload_rows_normalized_total,entity=employee_group,result=invalid"])
	assert.Equal(t, 1.0, values["sheetload_chunk_writes_total,entity=employee_group,kind=insert,result=success"])
	assert.Equal(t, 1.0, values["sheetload_chunk_writes_total,entity=employee_group,kind=insert,result=failure"])
	assert.Equal(t, 1.0, values["sheetload_chunk_fallbacks_total,entity=employee_group,kind=insert"])
	assert.Equal(t, 2.0, values["sheetload_row_outcomes_total,entity=employee_group,outcome=inserted"])
	assert.Equal(t, 1.0, values["sheetload_row_outcomes_total,entity=employee_group,outcome=failed"])
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	r.RecordOutcome(context.Background(), "category", "updated")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sheetload_row_outcomes_total{entity="category",outcome="updated"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestOpenTelemetryRecorder(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(ctx)

	r, err := metrics.NewOpenTelemetryRecorder(mp.Meter("test"))
	require.NoError(t, err)

	r.RecordRowsNormalized(ctx, "employee_group", 4, 1)
	r.RecordChunkWrite(ctx, "employee_group", "update", 4, false)
	r.RecordFallback(ctx, "employee_group", "update", 4)
	r.RecordOutcome(ctx, "employee_group", "updated")
	r.RecordDuration(ctx, "employee_group", "update", time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(5), sumOf(t, rm, "sheetload.rows.normalized"))
	assert.Equal(t, int64(1), sumOf(t, rm, "sheetload.chunk.writes"))
	assert.Equal(t, int64(1), sumOf(t, rm, "sheetload.chunk.fallbacks"))
	assert.Equal(t, int64(1), sumOf(t, rm, "sheetload.row.outcomes"))
}

func TestOpenTelemetryTracer(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := metrics.NewOpenTelemetryTracer(tp)

	ctx, endImport := tracer.StartImportSpan(context.Background(), "employee_group", 3)
	chunkCtx, endChunk := tracer.StartChunkSpan(ctx, "employee_group", "insert", 3)
	tracer.RecordEvent(chunkCtx, "chunk.fallback", map[string]interface{}{"size": 3, "kind": "insert"})
	tracer.RecordError(chunkCtx, "writer", errors.New("duplicate key"))
	endChunk()
	endImport()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	chunk := spans[0]
	assert.Equal(t, "insert chunk", chunk.Name())
	assert.Equal(t, codes.Error, chunk.Status().Code)
	assert.Equal(t, spans[1].SpanContext().SpanID(), chunk.Parent().SpanID())

	names := []string{}
	for _, ev := range chunk.Events() {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"chunk.fallback", "exception"}, names)

	assert.Equal(t, "import employee_group", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}
