package test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tigerroll/sheetload/pkg/batch/core/metrics"
)

// MockMetricRecorder is a mock implementation of metrics.MetricRecorder.
type MockMetricRecorder struct {
	mock.Mock
}

func (m *MockMetricRecorder) RecordRowsNormalized(ctx context.Context, entity string, valid, invalid int) {
	m.Called(ctx, entity, valid, invalid)
}

func (m *MockMetricRecorder) RecordChunkWrite(ctx context.Context, entity, kind string, size int, success bool) {
	m.Called(ctx, entity, kind, size, success)
}

func (m *MockMetricRecorder) RecordFallback(ctx context.Context, entity, kind string, size int) {
	m.Called(ctx, entity, kind, size)
}

func (m *MockMetricRecorder) RecordOutcome(ctx context.Context, entity, outcome string) {
	m.Called(ctx, entity, outcome)
}

func (m *MockMetricRecorder) RecordDuration(ctx context.Context, entity, stage string, duration time.Duration) {
	m.Called(ctx, entity, stage, duration)
}

var _ metrics.MetricRecorder = (*MockMetricRecorder)(nil)
