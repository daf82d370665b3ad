package usecase

import (
	"go.uber.org/fx"
)

// Module provides the Importer. Chunk listeners and report sinks are collected
// from the "chunk_listeners" and "report_sinks" value groups.
var Module = fx.Options(
	fx.Provide(NewImporterProvider),
)
