package notification

import (
	"context"
	"fmt"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// Notifier announces finished imports, e.g. to a chat channel or mailbox.
type Notifier interface {
	NotifyImportCompletion(ctx context.Context, run model.ImportRun, report model.ImportReport) error
}

// LogNotifier is a Notifier that only logs notifications.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() Notifier {
	logger.Debugf("Notification: Initializing log notifier.")
	return &LogNotifier{}
}

// NotifyImportCompletion logs a one-line summary of run.
func (n *LogNotifier) NotifyImportCompletion(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	message := Summary(run, report)
	if run.Status == model.RunCompleted {
		logger.Infof("%s", message)
	} else {
		logger.Warnf("%s", message)
	}
	return nil
}

var _ Notifier = (*LogNotifier)(nil)

// Summary formats the notification text of run.
func Summary(run model.ImportRun, report model.ImportReport) string {
	return fmt.Sprintf(
		"Import Notification: '%s' (ID: %s) by '%s' finished with Status: %s. Rows: %d, Inserted: %d, Updated: %d, Failed: %d. Duration: %s",
		run.Entity,
		run.ID,
		run.Actor,
		run.Status,
		run.TotalRows,
		report.Inserted,
		report.Updated,
		report.Failed(),
		run.FinishedAt.Sub(run.StartedAt),
	)
}

// NotificationSink is a port.ReportSink that sends notifications using a Notifier.
type NotificationSink struct {
	notifier Notifier
	// onlyFailures skips runs that wrote every row.
	onlyFailures bool
}

// NewNotificationSink creates a new instance of NotificationSink.
func NewNotificationSink(notifier Notifier, onlyFailures bool) *NotificationSink {
	return &NotificationSink{notifier: notifier, onlyFailures: onlyFailures}
}

// Consume notifies the completion of run.
func (s *NotificationSink) Consume(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	if s.onlyFailures && report.Succeeded() {
		return nil
	}
	if err := s.notifier.NotifyImportCompletion(ctx, run, report); err != nil {
		return fmt.Errorf("failed to notify completion of run %s: %w", run.ID, err)
	}
	return nil
}

var _ port.ReportSink = (*NotificationSink)(nil)
