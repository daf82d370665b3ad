package local

import (
	"go.uber.org/fx"
)

// Module contributes the local storage provider to the storage_providers group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLocalProvider,
		fx.ResultTags(`group:"storage_providers"`),
	)),
)
