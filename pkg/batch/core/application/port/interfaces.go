// Package port defines the boundaries of the import engine: the storage it
// reads and writes, and the hooks it notifies.
package port

import (
	"context"

	"github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
)

// RecordStore is the storage an entity is imported into.
type RecordStore interface {
	// LoadExisting reads the identifier and key columns of every stored record.
	// It is called once per import.
	LoadExisting(ctx context.Context, target model.Target, keyColumns []string) ([]model.ExistingRecord, error)
	// Insert writes the payloads of intents in one call. Either all rows are
	// stored or none are.
	Insert(ctx context.Context, target model.Target, intents []model.WriteIntent) error
	// Update applies each intent's payload to the row with its ID. Either all
	// updates are applied or none are.
	Update(ctx context.Context, target model.Target, intents []model.WriteIntent) error
}

// ChunkListener is notified around each chunk the writer handles.
type ChunkListener interface {
	BeforeChunk(ctx context.Context, entity string, kind model.WriteKind, size int)
	// OnChunkFallback is called when the bulk call failed and the chunk is
	// about to be rewritten record by record.
	OnChunkFallback(ctx context.Context, entity string, kind model.WriteKind, size int, err error)
	AfterChunk(ctx context.Context, entity string, kind model.WriteKind, outcomes []model.RowOutcome)
}

// ReportSink receives every finished report, e.g. to archive its errors.
type ReportSink interface {
	Consume(ctx context.Context, run model.ImportRun, report model.ImportReport) error
}

// RunRecorder stores the audit entry of each import.
type RunRecorder interface {
	SaveRun(ctx context.Context, run model.ImportRun) error
}
