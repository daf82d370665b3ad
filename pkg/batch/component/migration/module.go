package migration

import (
	"go.uber.org/fx"

	"github.com/tigerroll/sheetload/pkg/batch/component/migration/filesystem"
)

// Module provides the migration Runner with the embedded framework migrations.
// Applications add their own file system tagged `name:"appMigrationsFS"`.
var Module = fx.Options(
	filesystem.Module,
	fx.Provide(NewRunner),
)
