package report

import (
	"go.uber.org/fx"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage"
	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// NewReportSinksProvider returns the exporter when sheetload.export is enabled.
func NewReportSinksProvider(cfg *config.Config, resolver storage.StorageConnectionResolver) ([]port.ReportSink, error) {
	if !cfg.Sheetload.Export.Enabled {
		logger.Debugf("Error export is disabled.")
		return nil, nil
	}
	exporter, err := NewParquetExporter(cfg.Sheetload.Export, resolver)
	if err != nil {
		return nil, err
	}
	return []port.ReportSink{exporter}, nil
}

// Module contributes the Parquet exporter to the report_sinks group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewReportSinksProvider, fx.ResultTags(`group:"report_sinks,flatten"`))),
)
