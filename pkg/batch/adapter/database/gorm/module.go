package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// NewRecordStoreProvider builds the RecordStore for the import.db_ref connection.
func NewRecordStoreProvider(resolver database.DBConnectionResolver, importCfg *config.ImportConfig) port.RecordStore {
	txManager := NewGormTransactionManager(resolver, importCfg.DBRef)
	return NewRecordStore(resolver, txManager, importCfg.DBRef)
}

// NewRunRecorderProvider returns the import_runs repository, or nil when
// import.record_runs is off.
func NewRunRecorderProvider(resolver database.DBConnectionResolver, importCfg *config.ImportConfig) port.RunRecorder {
	if !importCfg.RecordRuns {
		logger.Debugf("Import run audit is disabled.")
		return nil
	}
	return NewRunRepository(resolver, importCfg.DBRef)
}

func registerCloseHook(lc fx.Lifecycle, resolver *GormDBConnectionResolver) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return resolver.CloseAll()
		},
	})
}

// Module wires the connection resolver, the record store and the run recorder.
// Dialect providers are added separately (see the sqlite, postgres and mysql packages).
var Module = fx.Options(
	fx.Provide(NewGormDBConnectionResolver),
	fx.Provide(func(r *GormDBConnectionResolver) database.DBConnectionResolver { return r }),
	fx.Provide(NewRecordStoreProvider),
	fx.Provide(NewRunRecorderProvider),
	fx.Invoke(registerCloseHook),
)
