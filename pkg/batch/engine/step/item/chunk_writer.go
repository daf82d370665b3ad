// Package item writes planned intents in bounded chunks.
package item

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// CancelledMessage is the failure recorded for rows not attempted because the import was cancelled.
const CancelledMessage = "import cancelled before this row was written"

// ChunkWriter writes intents chunk by chunk. Each chunk gets one bulk call;
// when it fails, every intent of the chunk is written again on its own so
// that only the rows storage actually rejects are reported as failed.
// Chunks and fallback writes run sequentially.
type ChunkWriter struct {
	store          port.RecordStore
	target         model.Target
	entity         string
	chunkSize      int
	chunkListeners []port.ChunkListener
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// NewChunkWriter creates a ChunkWriter for target. A non-positive chunkSize
// falls back to model.DefaultChunkSize.
func NewChunkWriter(store port.RecordStore, target model.Target, entity string, chunkSize int) *ChunkWriter {
	if chunkSize <= 0 {
		chunkSize = model.DefaultChunkSize
	}
	return &ChunkWriter{
		store:          store,
		target:         target,
		entity:         entity,
		chunkSize:      chunkSize,
		metricRecorder: metrics.NewNoOpMetricRecorder(),
		tracer:         metrics.NewNoOpTracer(),
	}
}

// SetMetricRecorder sets the MetricRecorder.
func (w *ChunkWriter) SetMetricRecorder(recorder metrics.MetricRecorder) {
	if recorder != nil {
		w.metricRecorder = recorder
	}
}

// SetTracer sets the Tracer.
func (w *ChunkWriter) SetTracer(tracer metrics.Tracer) {
	if tracer != nil {
		w.tracer = tracer
	}
}

// RegisterChunkListener adds a listener notified around every chunk.
func (w *ChunkWriter) RegisterChunkListener(l port.ChunkListener) {
	w.chunkListeners = append(w.chunkListeners, l)
}

// ChunkSize returns the effective chunk size.
func (w *ChunkWriter) ChunkSize() int {
	return w.chunkSize
}

// WriteInserts inserts intents and returns one outcome per intent, in input order.
func (w *ChunkWriter) WriteInserts(ctx context.Context, intents []model.WriteIntent) ([]model.RowOutcome, error) {
	return w.write(ctx, model.WriteInsert, intents)
}

// WriteUpdates updates intents and returns one outcome per intent, in input order.
func (w *ChunkWriter) WriteUpdates(ctx context.Context, intents []model.WriteIntent) ([]model.RowOutcome, error) {
	return w.write(ctx, model.WriteUpdate, intents)
}

// write returns ctx.Err() when ctx is done at a chunk boundary. The outcome list
// is complete even then: intents never attempted are marked failed.
func (w *ChunkWriter) write(ctx context.Context, kind model.WriteKind, intents []model.WriteIntent) ([]model.RowOutcome, error) {
	outcomes := make([]model.RowOutcome, 0, len(intents))
	if len(intents) == 0 {
		return outcomes, nil
	}

	start := time.Now()
	defer func() {
		w.metricRecorder.RecordDuration(ctx, w.entity, "write_"+kind.String(), time.Since(start))
	}()

	chunks := lo.Chunk(intents, w.chunkSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			logger.Warnf("ChunkWriter '%s': import cancelled before %s chunk %d/%d: %v", w.entity, kind, i+1, len(chunks), err)
			for _, rest := range chunks[i:] {
				for _, intent := range rest {
					outcomes = append(outcomes, w.fail(ctx, intent, CancelledMessage))
				}
			}
			return outcomes, err
		}

		logger.Debugf("ChunkWriter '%s': writing %s chunk %d/%d (%d records).", w.entity, kind, i+1, len(chunks), len(chunk))
		outcomes = append(outcomes, w.writeChunk(ctx, kind, chunk)...)
	}
	return outcomes, nil
}

func (w *ChunkWriter) writeChunk(ctx context.Context, kind model.WriteKind, chunk []model.WriteIntent) []model.RowOutcome {
	for _, l := range w.chunkListeners {
		l.BeforeChunk(ctx, w.entity, kind, len(chunk))
	}
	spanCtx, endSpan := w.tracer.StartChunkSpan(ctx, w.entity, kind.String(), len(chunk))
	defer endSpan()

	outcomes := make([]model.RowOutcome, 0, len(chunk))

	bulkErr := w.call(spanCtx, kind, chunk)
	w.metricRecorder.RecordChunkWrite(spanCtx, w.entity, kind.String(), len(chunk), bulkErr == nil)
	switch {
	case bulkErr == nil:
		for _, intent := range chunk {
			outcomes = append(outcomes, w.succeed(spanCtx, intent))
		}
	case len(chunk) == 1:
		// The bulk call already was the per-record write.
		logger.Debugf("ChunkWriter '%s': row %d rejected: %v", w.entity, chunk[0].RowIndex, bulkErr)
		w.tracer.RecordError(spanCtx, "ChunkWriter", bulkErr)
		outcomes = append(outcomes, w.fail(spanCtx, chunk[0], exception.ExtractErrorMessage(bulkErr)))
	default:
		logger.Warnf("ChunkWriter '%s': bulk %s of %d records failed, writing them one by one: %v", w.entity, kind, len(chunk), bulkErr)
		w.tracer.RecordError(spanCtx, "ChunkWriter", bulkErr)
		w.metricRecorder.RecordFallback(spanCtx, w.entity, kind.String(), len(chunk))
		for _, l := range w.chunkListeners {
			l.OnChunkFallback(spanCtx, w.entity, kind, len(chunk), bulkErr)
		}
		outcomes = append(outcomes, w.writeOneByOne(spanCtx, kind, chunk)...)
	}

	for _, l := range w.chunkListeners {
		l.AfterChunk(ctx, w.entity, kind, outcomes)
	}
	return outcomes
}

// writeOneByOne is the fallback pass: one storage call per intent, no further retry.
func (w *ChunkWriter) writeOneByOne(ctx context.Context, kind model.WriteKind, chunk []model.WriteIntent) []model.RowOutcome {
	outcomes := make([]model.RowOutcome, 0, len(chunk))
	for _, intent := range chunk {
		if err := w.call(ctx, kind, []model.WriteIntent{intent}); err != nil {
			logger.Debugf("ChunkWriter '%s': row %d rejected: %v", w.entity, intent.RowIndex, err)
			outcomes = append(outcomes, w.fail(ctx, intent, exception.ExtractErrorMessage(err)))
			continue
		}
		outcomes = append(outcomes, w.succeed(ctx, intent))
	}
	return outcomes
}

func (w *ChunkWriter) call(ctx context.Context, kind model.WriteKind, intents []model.WriteIntent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s: %v", kind, r)
		}
	}()
	if kind == model.WriteUpdate {
		return w.store.Update(ctx, w.target, intents)
	}
	return w.store.Insert(ctx, w.target, intents)
}

func (w *ChunkWriter) succeed(ctx context.Context, intent model.WriteIntent) model.RowOutcome {
	o := model.Succeeded(intent)
	w.metricRecorder.RecordOutcome(ctx, w.entity, o.Kind.String())
	return o
}

func (w *ChunkWriter) fail(ctx context.Context, intent model.WriteIntent, message string) model.RowOutcome {
	w.metricRecorder.RecordOutcome(ctx, w.entity, model.OutcomeFailed.String())
	return model.Failed(intent.RowIndex, message)
}
