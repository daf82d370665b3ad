package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/listener/notification"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyImportCompletion(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	return m.Called(ctx, run, report).Error(0)
}

func newRun(status model.RunStatus) model.ImportRun {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return model.ImportRun{
		ID:         "run-1",
		Entity:     "employee_group",
		Actor:      "42",
		TotalRows:  3,
		Inserted:   2,
		Failed:     1,
		Status:     status,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
}

func TestSummary(t *testing.T) {
	report := model.ImportReport{Inserted: 2, Errors: []model.RowError{{Row: 3, Error: "Tên nhóm is required"}}}

	got := notification.Summary(newRun(model.RunCompletedWithError), report)

	assert.Equal(t,
		"Import Notification: 'employee_group' (ID: run-1) by '42' finished with Status: COMPLETED_WITH_ERRORS. Rows: 3, Inserted: 2, Updated: 0, Failed: 1. Duration: 1.5s",
		got)
}

func TestNotificationSink(t *testing.T) {
	ctx := context.Background()
	clean := model.ImportReport{Inserted: 3, Errors: []model.RowError{}}
	dirty := model.ImportReport{Inserted: 2, Errors: []model.RowError{{Row: 3, Error: "boom"}}}

	t.Run("notifies every run", func(t *testing.T) {
		n := new(mockNotifier)
		n.On("NotifyImportCompletion", ctx, mock.Anything, clean).Return(nil).Once()

		require.NoError(t, notification.NewNotificationSink(n, false).Consume(ctx, newRun(model.RunCompleted), clean))
		n.AssertExpectations(t)
	})

	t.Run("only failures skips clean runs", func(t *testing.T) {
		n := new(mockNotifier)
		n.On("NotifyImportCompletion", ctx, mock.Anything, dirty).Return(nil).Once()
		sink := notification.NewNotificationSink(n, true)

		require.NoError(t, sink.Consume(ctx, newRun(model.RunCompleted), clean))
		require.NoError(t, sink.Consume(ctx, newRun(model.RunCompletedWithError), dirty))
		n.AssertExpectations(t)
	})

	t.Run("wraps notifier errors", func(t *testing.T) {
		cause := errors.New("smtp unavailable")
		n := new(mockNotifier)
		n.On("NotifyImportCompletion", ctx, mock.Anything, dirty).Return(cause)

		err := notification.NewNotificationSink(n, false).Consume(ctx, newRun(model.RunCompletedWithError), dirty)

		require.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "run-1")
	})

	t.Run("log notifier never fails", func(t *testing.T) {
		sink := notification.NewNotificationSink(notification.NewLogNotifier(), false)
		assert.NoError(t, sink.Consume(ctx, newRun(model.RunCancelled), dirty))
	})
}
