package logging

import (
	"context"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// --- Chunk Listener ---

type LoggingChunkListener struct{}

func NewLoggingChunkListener() port.ChunkListener {
	return &LoggingChunkListener{}
}

func (l *LoggingChunkListener) BeforeChunk(ctx context.Context, entity string, kind model.WriteKind, size int) {
	logger.Debugf("ChunkListener: BeforeChunk - Entity: %s, Kind: %s, Size: %d", entity, kind, size)
}

func (l *LoggingChunkListener) OnChunkFallback(ctx context.Context, entity string, kind model.WriteKind, size int, err error) {
	logger.Warnf("ChunkListener: OnChunkFallback - Entity: %s, Kind: %s, Size: %d, Error: %v. Writing records one by one.", entity, kind, size, err)
}

func (l *LoggingChunkListener) AfterChunk(ctx context.Context, entity string, kind model.WriteKind, outcomes []model.RowOutcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Kind == model.OutcomeFailed {
			failed++
		}
	}
	logger.Debugf("ChunkListener: AfterChunk - Entity: %s, Kind: %s, Written: %d, Failed: %d", entity, kind, len(outcomes)-failed, failed)
}

var _ port.ChunkListener = (*LoggingChunkListener)(nil)

// --- Report Sink ---

// LoggingReportSink logs every row error of a finished import at WARN level.
type LoggingReportSink struct{}

func NewLoggingReportSink() port.ReportSink {
	return &LoggingReportSink{}
}

func (s *LoggingReportSink) Consume(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	for _, e := range report.Errors {
		logger.Warnf("ReportSink: Run %s (%s) row %d: %s", run.ID, run.Entity, e.Row, e.Error)
	}
	return nil
}

var _ port.ReportSink = (*LoggingReportSink)(nil)
