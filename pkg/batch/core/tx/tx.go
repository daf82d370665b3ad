// Package tx abstracts database transactions so that record stores can write a
// whole chunk atomically and fall back to one transaction per record.
package tx

import (
	"context"
	"database/sql"

	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// TxExecutor defines the write operations available inside a transaction.
type TxExecutor interface {
	// ExecuteUpdate performs a write on tableName.
	//
	// operation is "CREATE" or "UPDATE".
	// model is the value to write: a struct, a slice of structs, a map or a slice of maps.
	// query holds the equality conditions of an UPDATE, combined with AND.
	ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error)
}

// Tx represents an ongoing database transaction.
type Tx interface {
	TxExecutor
	// SavePoint marks a point that RollbackTo can return to without ending the transaction.
	SavePoint(name string) error
	// RollbackTo discards every change made since the savepoint name.
	RollbackTo(name string) error
}

// TransactionManager manages the lifecycle of transactions.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit persists every change made in t.
	Commit(t Tx) error
	// Rollback discards every change made in t.
	Rollback(t Tx) error
}

type txKey struct{}

// WithTx returns a copy of ctx carrying t.
func WithTx(ctx context.Context, t Tx) context.Context {
	return context.WithValue(ctx, txKey{}, t)
}

// TxFromContext returns the transaction stored by WithTx.
func TxFromContext(ctx context.Context) (Tx, bool) {
	t, ok := ctx.Value(txKey{}).(Tx)
	return t, ok
}

// Run executes fn inside a new transaction, committing when fn returns nil
// and rolling back otherwise. fn receives a context that carries the transaction.
func Run(ctx context.Context, m TransactionManager, fn func(ctx context.Context, t Tx) error) error {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, t), t); err != nil {
		if rbErr := m.Rollback(t); rbErr != nil {
			logger.Warnf("Rollback failed after write error (%v): %v", err, rbErr)
		}
		return err
	}
	return m.Commit(t)
}
