package report_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/sheetload/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/sheetload/pkg/batch/component/report"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveStorageConnection(ctx context.Context, name string) (storage.StorageConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.StorageConnection), args.Error(1)
}

func finishedRun() model.ImportRun {
	return model.ImportRun{
		ID:         "0b6f5a3e-run",
		Entity:     "employee_group",
		Actor:      "42",
		Status:     model.RunCompletedWithError,
		FinishedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestParquetExporter_UploadsErrors(t *testing.T) {
	ctx := context.Background()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)

	resolver := new(mockResolver)
	resolver.On("ResolveStorageConnection", ctx, "archive").Return(conn, nil)

	exporter, err := report.NewParquetExporter(config.ExportConfig{StorageRef: "archive", Bucket: "reports", Compression: "snappy"}, resolver)
	require.NoError(t, err)

	run := finishedRun()
	rep := model.ImportReport{
		Inserted: 1,
		Errors: []model.RowError{
			{Row: 2, Error: "Tên nhóm is required"},
			{Row: 4, Error: "Duplicate Mã nhóm 'Sales' in this batch"},
		},
	}
	require.NoError(t, exporter.Consume(ctx, run, rep))
	assert.Equal(t, "import-errors/employee_group/0b6f5a3e-run.parquet", exporter.ObjectName(run))

	rc, err := conn.Download(ctx, "reports", exporter.ObjectName(run))
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	pf, err := buffer.NewBufferFile(data)
	require.NoError(t, err)
	pr, err := reader.NewParquetReader(pf, new(report.ErrorRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.Equal(t, int64(2), pr.GetNumRows())
	records := make([]report.ErrorRecord, 2)
	require.NoError(t, pr.Read(&records))

	assert.Equal(t, report.ErrorRecord{
		RunID:      "0b6f5a3e-run",
		Entity:     "employee_group",
		Actor:      "42",
		Row:        2,
		Error:      "Tên nhóm is required",
		FinishedAt: run.FinishedAt.UnixMilli(),
	}, records[0])
	assert.Equal(t, int32(4), records[1].Row)
	resolver.AssertExpectations(t)
}

func TestParquetExporter_SkipsCleanReports(t *testing.T) {
	resolver := new(mockResolver)
	exporter, err := report.NewParquetExporter(config.ExportConfig{StorageRef: "archive"}, resolver)
	require.NoError(t, err)

	require.NoError(t, exporter.Consume(context.Background(), finishedRun(), model.ImportReport{Inserted: 3, Errors: []model.RowError{}}))
	resolver.AssertNotCalled(t, "ResolveStorageConnection", mock.Anything, mock.Anything)
}

func TestParquetExporter_ResolveFailure(t *testing.T) {
	cause := errors.New("storage configuration 'archive' not found")
	resolver := new(mockResolver)
	resolver.On("ResolveStorageConnection", mock.Anything, "archive").Return(nil, cause)
	exporter, err := report.NewParquetExporter(config.ExportConfig{StorageRef: "archive"}, resolver)
	require.NoError(t, err)

	err = exporter.Consume(context.Background(), finishedRun(), model.ImportReport{Errors: []model.RowError{{Row: 1, Error: "x"}}})
	require.ErrorIs(t, err, cause)
}

func TestNewParquetExporter_Validation(t *testing.T) {
	_, err := report.NewParquetExporter(config.ExportConfig{}, new(mockResolver))
	assert.ErrorContains(t, err, "storage_ref")

	_, err = report.NewParquetExporter(config.ExportConfig{StorageRef: "archive", Compression: "LZO"}, new(mockResolver))
	assert.ErrorContains(t, err, "unsupported compression type: LZO")
}

func TestNewReportSinksProvider(t *testing.T) {
	cfg := config.NewConfig()
	sinks, err := report.NewReportSinksProvider(cfg, new(mockResolver))
	require.NoError(t, err)
	assert.Empty(t, sinks)

	cfg.Sheetload.Export.Enabled = true
	cfg.Sheetload.Export.StorageRef = "archive"
	sinks, err = report.NewReportSinksProvider(cfg, new(mockResolver))
	require.NoError(t, err)
	assert.Len(t, sinks, 1)
}
