// Package app assembles the hrimport Fx graphs. Each CLI command starts the
// graph it needs, pulls its components out with fx.Populate and stops the
// graph when it is done.
package app

import (
	"context"
	"io/fs"

	"go.uber.org/fx"

	gormadapter "github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage/gcs"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/sheetload/pkg/batch/component/migration"
	"github.com/tigerroll/sheetload/pkg/batch/component/report"
	usecase "github.com/tigerroll/sheetload/pkg/batch/core/application/usecase"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	inframetrics "github.com/tigerroll/sheetload/pkg/batch/infrastructure/metrics"
	batchlistener "github.com/tigerroll/sheetload/pkg/batch/listener"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// AppMigrationsFSTag names the application migrations for migration.Runner.
const AppMigrationsFSTag = `name:"appMigrationsFS"`

// Resources are the inputs baked into the binary.
type Resources struct {
	Config      config.EmbeddedConfig
	Migrations  fs.FS
	EnvFilePath string
}

// baseOptions supplies the configuration and routes Fx events to the batch logger.
func baseOptions(res Resources) fx.Option {
	return fx.Options(
		logger.Module,
		fx.Supply(
			res.Config,
			fx.Annotate(res.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
		),
		config.Module,
	)
}

// DatabaseModule provides the GORM resolver, record store and run recorder
// with every supported dialect.
var DatabaseModule = fx.Options(
	gormadapter.Module,
	sqlite.Module,
	postgres.Module,
	mysql.Module,
)

// StorageModule provides the storage resolver with the local and GCS providers.
var StorageModule = fx.Options(
	storage.Module,
	local.Module,
	gcs.Module,
)

// ImportModule provides the Importer with its listeners, sinks and telemetry.
// A dry run writes to an in-memory store and records no runs.
func ImportModule(dryRun bool) fx.Option {
	store := DatabaseModule
	if dryRun {
		store = DryRunModule
	}
	return fx.Options(
		store,
		StorageModule,
		report.Module,
		inframetrics.Module,
		batchlistener.Module,
		usecase.Module,
	)
}

// MigrationModule provides migration.Runner over the framework and application migrations.
func MigrationModule(res Resources) fx.Option {
	options := []fx.Option{DatabaseModule, migration.Module}
	if res.Migrations != nil {
		options = append(options, fx.Provide(fx.Annotate(
			func() fs.FS { return res.Migrations },
			fx.ResultTags(AppMigrationsFSTag),
		)))
	}
	return fx.Options(options...)
}

// Start builds and starts the graph made of module, filling targets as fx.Populate does.
// The caller stops the returned app.
func Start(ctx context.Context, res Resources, module fx.Option, targets ...interface{}) (*fx.App, error) {
	app := fx.New(
		baseOptions(res),
		module,
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, err
	}
	return app, nil
}

// Stop stops app, logging instead of returning shutdown errors.
func Stop(app *fx.App) {
	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Errorf("Failed to stop application: %v", err)
	}
}
