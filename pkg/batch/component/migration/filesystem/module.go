package filesystem

import (
	"go.uber.org/fx"
)

// FrameworkMigrationsFSTag is the Fx tag for the embedded framework migrations filesystem.
const FrameworkMigrationsFSTag = `name:"frameworkMigrationsFS"`

// Module provides the embedded framework migrations.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		ProvideFrameworkMigrationsFS,
		fx.ResultTags(FrameworkMigrationsFSTag),
	)),
)
