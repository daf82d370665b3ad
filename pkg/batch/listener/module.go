package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/sheetload/pkg/batch/listener/logging"
	"github.com/tigerroll/sheetload/pkg/batch/listener/metrics"
	"github.com/tigerroll/sheetload/pkg/batch/listener/notification"
	"github.com/tigerroll/sheetload/pkg/batch/listener/tracing"
)

// Module aggregates all listener modules of sheetload.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	tracing.Module,
	notification.Module,
)
