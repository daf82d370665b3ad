package gorm

import (
	"context"
	"fmt"
	"maps"
	"sync/atomic"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/core/tx"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// RecordStore implements port.RecordStore on a named GORM connection.
// Every Insert and Update call runs in its own transaction unless ctx
// already carries one (see tx.WithTx). On a transaction from ctx each call
// runs behind a savepoint, so a failed call leaves the transaction usable
// for the next one.
type RecordStore struct {
	dbResolver database.DBConnectionResolver
	txManager  tx.TransactionManager
	dbName     string
	savepoints atomic.Uint64
}

// NewRecordStore creates a RecordStore writing to the connection dbName.
func NewRecordStore(dbResolver database.DBConnectionResolver, txManager tx.TransactionManager, dbName string) *RecordStore {
	return &RecordStore{dbResolver: dbResolver, txManager: txManager, dbName: dbName}
}

func (s *RecordStore) getDBConnection(ctx context.Context) (database.DBConnection, error) {
	conn, err := s.dbResolver.ResolveDBConnection(ctx, s.dbName)
	if err != nil {
		return nil, exception.NewBatchError("RecordStore", fmt.Sprintf("failed to resolve DB connection '%s'", s.dbName), err, false, true)
	}
	return conn, nil
}

// LoadExisting reads the id and key columns of every row of target.Table.
func (s *RecordStore) LoadExisting(ctx context.Context, target model.Target, keyColumns []string) ([]model.ExistingRecord, error) {
	conn, err := s.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	columns := append([]string{target.IDColumn}, keyColumns...)
	var rows []map[string]interface{}
	if err := conn.SelectColumns(ctx, target.Table, columns, &rows); err != nil {
		return nil, exception.NewBatchError("RecordStore", fmt.Sprintf("failed to read existing keys of '%s'", target.Table), err, false, true)
	}

	existing := make([]model.ExistingRecord, 0, len(rows))
	for _, row := range rows {
		existing = append(existing, model.ExistingRecord{ID: row[target.IDColumn], Fields: row})
	}
	return existing, nil
}

// Insert writes every intent with one multi-row INSERT.
// Payloads are copied: GORM writes generated keys back into the maps it inserts.
func (s *RecordStore) Insert(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	if len(intents) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(intents))
	for _, intent := range intents {
		rows = append(rows, maps.Clone(map[string]interface{}(intent.Payload)))
	}

	return s.withExecutor(ctx, func(ctx context.Context, executor tx.TxExecutor) error {
		if _, err := executor.ExecuteUpdate(ctx, rows, "CREATE", target.Table, nil); err != nil {
			return exception.NewBatchError("RecordStore", fmt.Sprintf("failed to insert %d rows into '%s'", len(rows), target.Table), err, true, false)
		}
		return nil
	})
}

// Update writes one UPDATE per intent, matched on the id column, all in the same transaction.
// A row left unchanged is not an error. An id that matches no row is: the record
// was removed after LoadExisting and nothing would be written for it.
func (s *RecordStore) Update(ctx context.Context, target model.Target, intents []model.WriteIntent) error {
	if len(intents) == 0 {
		return nil
	}
	return s.withExecutor(ctx, func(ctx context.Context, executor tx.TxExecutor) error {
		for _, intent := range intents {
			values := map[string]interface{}(intent.Payload)
			query := map[string]interface{}{target.IDColumn: intent.ID}
			affected, err := executor.ExecuteUpdate(ctx, values, "UPDATE", target.Table, query)
			if err != nil {
				return exception.NewBatchError("RecordStore", fmt.Sprintf("failed to update '%s' %v", target.Table, intent.ID), err, true, false)
			}
			if affected == 0 {
				return exception.NewBatchError("RecordStore", fmt.Sprintf("failed to update '%s' %v", target.Table, intent.ID),
					fmt.Errorf("record %v not found in %s", intent.ID, target.Table), true, false)
			}
		}
		return nil
	})
}

// withExecutor runs fn on the transaction carried by ctx, or on a new one.
// On the transaction from ctx, a failing fn is rolled back to a savepoint
// taken before it ran; the transaction itself stays open.
func (s *RecordStore) withExecutor(ctx context.Context, fn func(ctx context.Context, executor tx.TxExecutor) error) error {
	if t, ok := tx.TxFromContext(ctx); ok {
		name := fmt.Sprintf("sheetload_write_%d", s.savepoints.Add(1))
		if err := t.SavePoint(name); err != nil {
			return exception.NewBatchError("RecordStore", fmt.Sprintf("failed to create savepoint '%s'", name), err, false, true)
		}
		if err := fn(ctx, t); err != nil {
			if rbErr := t.RollbackTo(name); rbErr != nil {
				logger.Warnf("RecordStore: rollback to savepoint '%s' failed after write error (%v): %v", name, err, rbErr)
			}
			return err
		}
		return nil
	}
	return tx.Run(ctx, s.txManager, func(ctx context.Context, t tx.Tx) error {
		return fn(ctx, t)
	})
}

var _ port.RecordStore = (*RecordStore)(nil)
