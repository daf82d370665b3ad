package metrics

import (
	"go.uber.org/fx"
)

// Module makes the provided MetricRecorder asynchronous when configured to.
// The recorder itself comes from infrastructure/metrics.
var Module = fx.Options(
	fx.Decorate(NewAsyncMetricRecorderWrapper),
)
