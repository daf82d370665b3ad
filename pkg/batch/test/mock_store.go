package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// MockRecordStore is a mock implementation of port.RecordStore.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) LoadExisting(ctx context.Context, target model.Target, keyColumns []string) ([]model.ExistingRecord, error) {
	args := m.Called(ctx, target, keyColumns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExistingRecord), args.Error(1)
}

func (m *MockRecordStore) Insert(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	args := m.Called(ctx, target, intents)
	return args.Error(0)
}

func (m *MockRecordStore) Update(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	args := m.Called(ctx, target, intents)
	return args.Error(0)
}

// MockReportSink is a mock implementation of port.ReportSink.
type MockReportSink struct {
	mock.Mock
}

func (m *MockReportSink) Consume(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	args := m.Called(ctx, run, report)
	return args.Error(0)
}

// MockRunRecorder is a mock implementation of port.RunRecorder.
type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) SaveRun(ctx context.Context, run model.ImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// RecordingChunkListener keeps every notification it receives, in order.
type RecordingChunkListener struct {
	Events    []string
	Fallbacks []error
	Outcomes  [][]model.RowOutcome
}

func (l *RecordingChunkListener) BeforeChunk(ctx context.Context, entity string, kind model.WriteKind, size int) {
	l.Events = append(l.Events, "before:"+kind.String())
}

func (l *RecordingChunkListener) OnChunkFallback(ctx context.Context, entity string, kind model.WriteKind, size int, err error) {
	l.Events = append(l.Events, "fallback:"+kind.String())
	l.Fallbacks = append(l.Fallbacks, err)
}

func (l *RecordingChunkListener) AfterChunk(ctx context.Context, entity string, kind model.WriteKind, outcomes []model.RowOutcome) {
	l.Events = append(l.Events, "after:"+kind.String())
	l.Outcomes = append(l.Outcomes, outcomes)
}

var (
	_ port.RecordStore   = (*MockRecordStore)(nil)
	_ port.ReportSink    = (*MockReportSink)(nil)
	_ port.RunRecorder   = (*MockRunRecorder)(nil)
	_ port.ChunkListener = (*RecordingChunkListener)(nil)
)
