package tracing

import (
	"context"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/core/metrics"
)

// TracingChunkListener adds chunk events to the span carried by the context.
type TracingChunkListener struct {
	tracer metrics.Tracer
}

func NewTracingChunkListener(tracer metrics.Tracer) port.ChunkListener {
	return &TracingChunkListener{tracer: tracer}
}

func (l *TracingChunkListener) BeforeChunk(ctx context.Context, entity string, kind model.WriteKind, size int) {
	l.tracer.RecordEvent(ctx, "chunk.start", map[string]interface{}{
		"entity": entity,
		"kind":   kind.String(),
		"size":   size,
	})
}

func (l *TracingChunkListener) OnChunkFallback(ctx context.Context, entity string, kind model.WriteKind, size int, err error) {
	l.tracer.RecordEvent(ctx, "chunk.fallback", map[string]interface{}{
		"entity": entity,
		"kind":   kind.String(),
		"size":   size,
		"error":  err.Error(),
	})
}

func (l *TracingChunkListener) AfterChunk(ctx context.Context, entity string, kind model.WriteKind, outcomes []model.RowOutcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Kind == model.OutcomeFailed {
			failed++
		}
	}
	l.tracer.RecordEvent(ctx, "chunk.end", map[string]interface{}{
		"entity":  entity,
		"kind":    kind.String(),
		"written": len(outcomes) - failed,
		"failed":  failed,
	})
}

var _ port.ChunkListener = (*TracingChunkListener)(nil)
