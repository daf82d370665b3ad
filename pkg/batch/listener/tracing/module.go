package tracing

import (
	"go.uber.org/fx"
)

// Module contributes the tracing chunk listener. The Tracer itself is
// provided by infrastructure/metrics.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewTracingChunkListener, fx.ResultTags(`group:"chunk_listeners"`))),
)
