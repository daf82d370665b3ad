package logging

import (
	"go.uber.org/fx"
)

// Module contributes the logging chunk listener and report sink to their groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewLoggingChunkListener, fx.ResultTags(`group:"chunk_listeners"`))),
	fx.Provide(fx.Annotate(NewLoggingReportSink, fx.ResultTags(`group:"report_sinks"`))),
)
