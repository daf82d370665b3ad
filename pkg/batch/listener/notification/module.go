package notification

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
)

// NewNotificationSinkProvider wraps the Notifier into a report sink.
func NewNotificationSinkProvider(notifier Notifier) port.ReportSink {
	return NewNotificationSink(notifier, false)
}

// Module provides notification-related components.
var Module = fx.Options(
	// 1. Provides a concrete implementation of Notifier.
	fx.Provide(NewLogNotifier),

	// 2. Contributes the sink to the report sinks of the importer.
	fx.Provide(fx.Annotate(NewNotificationSinkProvider, fx.ResultTags(`group:"report_sinks"`))),
)
