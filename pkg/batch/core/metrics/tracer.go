package metrics

import "context"

// Tracer opens spans around an import and its chunks.
// The returned function ends the span.
type Tracer interface {
	StartImportSpan(ctx context.Context, entity string, rows int) (context.Context, func())
	StartChunkSpan(ctx context.Context, entity, kind string, size int) (context.Context, func())
	RecordError(ctx context.Context, module string, err error)
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}

// NoOpTracer does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

var _ Tracer = (*NoOpTracer)(nil)

func (t *NoOpTracer) StartImportSpan(ctx context.Context, entity string, rows int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartChunkSpan(ctx context.Context, entity, kind string, size int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}
