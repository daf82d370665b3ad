package gorm

import (
	"context"
	"fmt"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/core/tx"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
)

// RunRepository stores ImportRun audit rows in the import_runs table.
type RunRepository struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// NewRunRepository creates a RunRepository writing to the connection dbName.
func NewRunRepository(dbResolver database.DBConnectionResolver, dbName string) *RunRepository {
	return &RunRepository{dbResolver: dbResolver, dbName: dbName}
}

// getTxExecutor returns the transaction carried by ctx, or the connection itself.
func (r *RunRepository) getTxExecutor(ctx context.Context) (tx.TxExecutor, error) {
	if t, ok := tx.TxFromContext(ctx); ok {
		return t, nil
	}
	conn, err := r.dbResolver.ResolveDBConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.NewBatchError("RunRepository", fmt.Sprintf("failed to resolve DB connection '%s'", r.dbName), err, false, true)
	}
	return conn, nil
}

// SaveRun implements port.RunRecorder.
func (r *RunRepository) SaveRun(ctx context.Context, run model.ImportRun) error {
	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}
	if _, err := executor.ExecuteUpdate(ctx, &run, "CREATE", run.TableName(), nil); err != nil {
		return exception.NewBatchError("RunRepository", fmt.Sprintf("failed to save import run (ID: %s)", run.ID), err, true, false)
	}
	return nil
}

// FindRuns returns the most recent runs of entity, newest first.
func (r *RunRepository) FindRuns(ctx context.Context, entity string, limit int) ([]model.ImportRun, error) {
	conn, err := r.dbResolver.ResolveDBConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.NewBatchError("RunRepository", fmt.Sprintf("failed to resolve DB connection '%s'", r.dbName), err, false, true)
	}
	adapter, ok := conn.(*GormDBAdapter)
	if !ok {
		return nil, exception.NewBatchError("RunRepository", "internal error: DBConnection implementation is not *GormDBAdapter", nil, false, false)
	}

	var runs []model.ImportRun
	db := adapter.GormDB().WithContext(ctx).Where("entity = ?", entity).Order("started_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&runs).Error; err != nil {
		return nil, exception.NewBatchError("RunRepository", fmt.Sprintf("failed to list import runs of '%s'", entity), err, false, true)
	}
	return runs, nil
}

var _ port.RunRecorder = (*RunRepository)(nil)
