package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/core/metrics"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type     string
	Entity   string
	Kind     string // "insert" or "update", or the outcome for outcome events
	Stage    string
	Size     int
	Valid    int
	Invalid  int
	Success  bool
	Duration time.Duration
}

// Metric event type constants
const (
	MetricEventTypeRowsNormalized = "rows_normalized"
	MetricEventTypeChunkWrite     = "chunk_write"
	MetricEventTypeFallback       = "fallback"
	MetricEventTypeOutcome        = "outcome"
	MetricEventTypeDuration       = "duration"
)

// AsyncMetricRecorder asynchronously records metrics by pushing events to a channel
// and processing them in a separate goroutine.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder
}

// NewAsyncMetricRecorder creates a new asynchronous metric recorder.
// A bufferSize of 0 or less uses a default of 100.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run()
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			// Drain what is still queued before exiting.
			remainingEvents := len(r.eventQueue)
			for i := 0; i < remainingEvents; i++ {
				r.processEvent(<-r.eventQueue)
			}
			logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remainingEvents)
			return
		}
	}
}

func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	// The event does not carry the caller's context.
	ctx := context.Background()
	switch event.Type {
	case MetricEventTypeRowsNormalized:
		r.syncRecorder.RecordRowsNormalized(ctx, event.Entity, event.Valid, event.Invalid)
	case MetricEventTypeChunkWrite:
		r.syncRecorder.RecordChunkWrite(ctx, event.Entity, event.Kind, event.Size, event.Success)
	case MetricEventTypeFallback:
		r.syncRecorder.RecordFallback(ctx, event.Entity, event.Kind, event.Size)
	case MetricEventTypeOutcome:
		r.syncRecorder.RecordOutcome(ctx, event.Entity, event.Kind)
	case MetricEventTypeDuration:
		r.syncRecorder.RecordDuration(ctx, event.Entity, event.Stage, event.Duration)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// Close stops the worker after it has processed every queued event. It is safe to call more than once.
func (r *AsyncMetricRecorder) Close() {
	r.stopOnce.Do(func() {
		logger.Debugf("AsyncMetricRecorder: Sending shutdown signal...")
		close(r.stopCh)
		r.wg.Wait()
		logger.Debugf("AsyncMetricRecorder: Shutdown complete.")
	})
}

// sendEvent queues an event, discarding it with a warning if the queue is full.
func (r *AsyncMetricRecorder) sendEvent(event MetricEvent) {
	select {
	case r.eventQueue <- event:
	default:
		logger.Warnf("AsyncMetricRecorder: Event queue is full (type: %s, entity: %s). Event discarded.", event.Type, event.Entity)
	}
}

func (r *AsyncMetricRecorder) RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRowsNormalized, Entity: entity, Valid: valid, Invalid: invalid})
}

func (r *AsyncMetricRecorder) RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeChunkWrite, Entity: entity, Kind: kind, Size: size, Success: success})
}

func (r *AsyncMetricRecorder) RecordFallback(ctx context.Context, entity, kind string, size int) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeFallback, Entity: entity, Kind: kind, Size: size})
}

func (r *AsyncMetricRecorder) RecordOutcome(ctx context.Context, entity, outcome string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeOutcome, Entity: entity, Kind: outcome})
}

func (r *AsyncMetricRecorder) RecordDuration(ctx context.Context, entity, stage string, duration time.Duration) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeDuration, Entity: entity, Stage: stage, Duration: duration})
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)

// NewAsyncMetricRecorderWrapper is used with fx.Decorate. It wraps the provided
// recorder when sheetload.metrics.async_buffer_size is positive and closes the
// wrapper on shutdown.
func NewAsyncMetricRecorderWrapper(lc fx.Lifecycle, cfg *config.MetricsConfig, syncRecorder metrics.MetricRecorder) metrics.MetricRecorder {
	if cfg.AsyncBufferSize <= 0 {
		return syncRecorder
	}
	asyncRecorder := NewAsyncMetricRecorder(cfg.AsyncBufferSize, syncRecorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			asyncRecorder.Close()
			return nil
		},
	})
	logger.Debugf("MetricRecorder decorated with asynchronous wrapper.")
	return asyncRecorder
}
