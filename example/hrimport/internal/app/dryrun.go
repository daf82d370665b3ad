package app

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/infrastructure/store/inmemory"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// NewDryRunStore returns an empty in-memory store with one table per configured
// entity. Business keys are unique and required fields are NOT NULL, so a dry
// run reports the rows a real import into empty tables would reject.
func NewDryRunStore(cfg *config.Config) (port.RecordStore, error) {
	store := inmemory.NewStore()
	for _, name := range cfg.EntityNames() {
		profile, err := cfg.EntityProfile(name)
		if err != nil {
			return nil, err
		}
		var notNull []string
		for _, f := range profile.Fields {
			if f.Required {
				notNull = append(notNull, f.Name)
			}
		}
		store.DefineTable(profile.Table, inmemory.TableOptions{
			UniqueKeys: [][]string{profile.KeyFields},
			NotNull:    notNull,
		})
	}
	logger.Infof("Dry run: writing to an in-memory store with %d tables.", len(cfg.EntityNames()))
	return store, nil
}

// DryRunModule replaces DatabaseModule for dry runs. No run recorder is provided.
var DryRunModule = fx.Options(
	fx.Provide(NewDryRunStore),
)
