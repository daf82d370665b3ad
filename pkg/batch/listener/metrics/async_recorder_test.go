package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/fx/fxtest"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	listenermetrics "github.com/tigerroll/sheetload/pkg/batch/listener/metrics"
	"github.com/tigerroll/sheetload/pkg/batch/test"
)

func TestAsyncMetricRecorder_ForwardsEveryEvent(t *testing.T) {
	syncRec := new(test.MockMetricRecorder)
	syncRec.On("RecordRowsNormalized", mock.Anything, "employee_group", 9, 1).Once()
	syncRec.On("RecordChunkWrite", mock.Anything, "employee_group", "insert", 9, false).Once()
	syncRec.On("RecordFallback", mock.Anything, "employee_group", "insert", 9).Once()
	syncRec.On("RecordOutcome", mock.Anything, "employee_group", "inserted").Times(8)
	syncRec.On("RecordOutcome", mock.Anything, "employee_group", "failed").Once()
	syncRec.On("RecordDuration", mock.Anything, "employee_group", "import", time.Second).Once()

	r := listenermetrics.NewAsyncMetricRecorder(64, syncRec)
	ctx := context.Background()
	r.RecordRowsNormalized(ctx, "employee_group", 9, 1)
	r.RecordChunkWrite(ctx, "employee_group", "insert", 9, false)
	r.RecordFallback(ctx, "employee_group", "insert", 9)
	for i := 0; i < 8; i++ {
		r.RecordOutcome(ctx, "employee_group", "inserted")
	}
	r.RecordOutcome(ctx, "employee_group", "failed")
	r.RecordDuration(ctx, "employee_group", "import", time.Second)

	// Close drains the queue before returning.
	r.Close()
	r.Close()

	syncRec.AssertExpectations(t)
}

func TestAsyncMetricRecorderWrapper(t *testing.T) {
	t.Run("zero buffer keeps the recorder synchronous", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)
		syncRec := new(test.MockMetricRecorder)

		got := listenermetrics.NewAsyncMetricRecorderWrapper(lc, &config.MetricsConfig{}, syncRec)

		assert.Same(t, syncRec, got)
	})

	t.Run("positive buffer wraps and closes on stop", func(t *testing.T) {
		lc := fxtest.NewLifecycle(t)
		syncRec := new(test.MockMetricRecorder)
		syncRec.On("RecordOutcome", mock.Anything, "category", "updated").Once()

		got := listenermetrics.NewAsyncMetricRecorderWrapper(lc, &config.MetricsConfig{AsyncBufferSize: 8}, syncRec)
		assert.IsType(t, &listenermetrics.AsyncMetricRecorder{}, got)

		lc.RequireStart()
		got.RecordOutcome(context.Background(), "category", "updated")
		lc.RequireStop()

		syncRec.AssertExpectations(t)
	})
}
