// Package report archives the error tables of finished imports.
package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage"
	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

const moduleName = "report_exporter"

// ParquetContentType is the MIME type of uploaded files.
const ParquetContentType = "application/vnd.apache.parquet"

// ErrorRecord is one row of an exported error table.
type ErrorRecord struct {
	RunID      string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Entity     string `parquet:"name=entity, type=BYTE_ARRAY, convertedtype=UTF8"`
	Actor      string `parquet:"name=actor, type=BYTE_ARRAY, convertedtype=UTF8"`
	Row        int32  `parquet:"name=row, type=INT32"`
	Error      string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinishedAt int64  `parquet:"name=finished_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// ParquetExporter uploads the errors of each report as a Parquet file to
// <base_dir>/<entity>/<run id>.parquet. Reports without errors are skipped.
type ParquetExporter struct {
	cfg      config.ExportConfig
	resolver storage.StorageConnectionResolver
}

// NewParquetExporter validates cfg and creates a ParquetExporter.
func NewParquetExporter(cfg config.ExportConfig, resolver storage.StorageConnectionResolver) (*ParquetExporter, error) {
	if cfg.StorageRef == "" {
		return nil, exception.NewBatchError(moduleName, "export requires 'storage_ref'", nil, false, false)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "import-errors"
	}
	if _, err := compressionCodec(cfg.Compression); err != nil {
		return nil, exception.NewBatchError(moduleName, err.Error(), err, false, false)
	}
	return &ParquetExporter{cfg: cfg, resolver: resolver}, nil
}

// ObjectName returns where the errors of run are stored.
func (e *ParquetExporter) ObjectName(run model.ImportRun) string {
	return path.Join(e.cfg.BaseDir, run.Entity, run.ID+".parquet")
}

// Consume implements port.ReportSink.
func (e *ParquetExporter) Consume(ctx context.Context, run model.ImportRun, report model.ImportReport) error {
	if len(report.Errors) == 0 {
		logger.Debugf("ParquetExporter: Run %s has no errors, skipping export.", run.ID)
		return nil
	}

	data, err := e.encode(run, report)
	if err != nil {
		return err
	}

	conn, err := e.resolver.ResolveStorageConnection(ctx, e.cfg.StorageRef)
	if err != nil {
		return exception.NewBatchError(moduleName,
			fmt.Sprintf("failed to resolve storage connection '%s'", e.cfg.StorageRef), err, false, true)
	}

	objectName := e.ObjectName(run)
	if err := conn.Upload(ctx, e.cfg.Bucket, objectName, bytes.NewReader(data), ParquetContentType); err != nil {
		return exception.NewBatchError(moduleName,
			fmt.Sprintf("failed to upload '%s'", objectName), err, false, true)
	}
	logger.Infof("ParquetExporter: Exported %d errors of run %s to %s:%s.", len(report.Errors), run.ID, e.cfg.StorageRef, objectName)
	return nil
}

func (e *ParquetExporter) encode(run model.ImportRun, report model.ImportReport) (data []byte, err error) {
	codec, err := compressionCodec(e.cfg.Compression)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, err.Error(), err, false, false)
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(ErrorRecord), 1)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to create Parquet writer", err, false, false)
	}
	pw.CompressionType = codec

	finishedAt := run.FinishedAt.UnixMilli()
	for _, rowErr := range report.Errors {
		rec := ErrorRecord{
			RunID:      run.ID,
			Entity:     run.Entity,
			Actor:      run.Actor,
			Row:        int32(rowErr.Row),
			Error:      rowErr.Error,
			FinishedAt: finishedAt,
		}
		if err := pw.Write(rec); err != nil {
			return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to encode row %d", rowErr.Row), err, false, false)
		}
	}

	// WriteStop may panic on schema errors.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("ParquetExporter: Recovered from panic during WriteStop: %v", r)
			data, err = nil, exception.NewBatchError(moduleName, fmt.Sprintf("Parquet writer panicked: %v", r), nil, false, false)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to finish Parquet file", err, false, false)
	}
	return buf.Bytes(), nil
}

func compressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

var _ port.ReportSink = (*ParquetExporter)(nil)
