package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	rowsNormalized *prometheus.CounterVec
	chunkWrites    *prometheus.CounterVec
	chunkRows      *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	rowOutcomes    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Go runtime and process metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		rowsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetload_rows_normalized_total",
			Help: "Rows checked by the normalizer, by result (valid, invalid).",
		}, []string{"entity", "result"}),
		chunkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetload_chunk_writes_total",
			Help: "Bulk write calls, by kind and result (success, failure).",
		}, []string{"entity", "kind", "result"}),
		chunkRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sheetload_chunk_rows",
			Help:    "Number of records per bulk write call.",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		}, []string{"entity", "kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetload_chunk_fallbacks_total",
			Help: "Chunks rewritten record by record after a failed bulk call.",
		}, []string{"entity", "kind"}),
		rowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetload_row_outcomes_total",
			Help: "Write outcomes per row (inserted, updated, failed).",
		}, []string{"entity", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sheetload_stage_duration_seconds",
			Help:    "Duration of imports and their write stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity", "stage"}),
	}

	registry.MustRegister(r.rowsNormalized)
	registry.MustRegister(r.chunkWrites)
	registry.MustRegister(r.chunkRows)
	registry.MustRegister(r.fallbacks)
	registry.MustRegister(r.rowOutcomes)
	registry.MustRegister(r.stageDuration)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *PrometheusRecorder) RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int) {
	r.rowsNormalized.WithLabelValues(entity, "valid").Add(float64(valid))
	r.rowsNormalized.WithLabelValues(entity, "invalid").Add(float64(invalid))
}

func (r *PrometheusRecorder) RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.chunkWrites.WithLabelValues(entity, kind, result).Inc()
	r.chunkRows.WithLabelValues(entity, kind).Observe(float64(size))
}

func (r *PrometheusRecorder) RecordFallback(ctx context.Context, entity, kind string, size int) {
	r.fallbacks.WithLabelValues(entity, kind).Inc()
}

func (r *PrometheusRecorder) RecordOutcome(ctx context.Context, entity, outcome string) {
	r.rowOutcomes.WithLabelValues(entity, outcome).Inc()
}

func (r *PrometheusRecorder) RecordDuration(ctx context.Context, entity, stage string, duration time.Duration) {
	r.stageDuration.WithLabelValues(entity, stage).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
