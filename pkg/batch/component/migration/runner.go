package migration

import (
	"context"
	"fmt"
	"io/fs"

	"go.uber.org/fx"

	"github.com/tigerroll/sheetload/pkg/batch/adapter/database"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// Status is the migration state of one migration set.
type Status struct {
	Table   string
	Version uint
	Dirty   bool
	Applied bool
}

// Runner applies the framework migrations and, when provided, the
// application migrations to a named connection. Both file systems hold one
// directory per database type.
type Runner struct {
	resolver    database.DBConnectionResolver
	providers   map[string]database.DBProvider
	frameworkFS fs.FS
	appFS       fs.FS
	newMigrator func(database.DBConnection) Migrator
}

// RunnerParams defines the dependencies for NewRunner.
type RunnerParams struct {
	fx.In
	Resolver    database.DBConnectionResolver
	DBProviders []database.DBProvider `group:"db_providers"`
	FrameworkFS fs.FS                 `name:"frameworkMigrationsFS"`
	AppFS       fs.FS                 `name:"appMigrationsFS" optional:"true"`
}

// NewRunner creates a Runner.
func NewRunner(p RunnerParams) *Runner {
	providers := make(map[string]database.DBProvider, len(p.DBProviders))
	for _, provider := range p.DBProviders {
		providers[provider.Type()] = provider
	}
	return &Runner{
		resolver:    p.Resolver,
		providers:   providers,
		frameworkFS: p.FrameworkFS,
		appFS:       p.AppFS,
		newMigrator: NewMigrator,
	}
}

type migrationSet struct {
	fsys  fs.FS
	table string
}

func (r *Runner) sets() []migrationSet {
	sets := []migrationSet{{fsys: r.frameworkFS, table: FrameworkMigrationsTable}}
	if r.appFS != nil {
		sets = append(sets, migrationSet{fsys: r.appFS, table: AppMigrationsTable})
	}
	return sets
}

// Up applies the framework migrations, then the application migrations.
func (r *Runner) Up(ctx context.Context, connName string) error {
	for _, set := range r.sets() {
		if err := r.apply(ctx, connName, set, Migrator.Up); err != nil {
			return err
		}
	}
	return nil
}

// Down rolls back the application migrations, then the framework migrations.
func (r *Runner) Down(ctx context.Context, connName string) error {
	sets := r.sets()
	for i := len(sets) - 1; i >= 0; i-- {
		if err := r.apply(ctx, connName, sets[i], Migrator.Down); err != nil {
			return err
		}
	}
	return nil
}

// Status reports the version of every migration set.
func (r *Runner) Status(ctx context.Context, connName string) ([]Status, error) {
	var statuses []Status
	for _, set := range r.sets() {
		conn, err := r.resolver.ResolveDBConnection(ctx, connName)
		if err != nil {
			return nil, err
		}
		version, dirty, ok, err := r.newMigrator(conn).Version(ctx, set.fsys, conn.Type(), set.table)
		r.reconnect(conn)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", set.table, err)
		}
		statuses = append(statuses, Status{Table: set.table, Version: version, Dirty: dirty, Applied: ok})
	}
	return statuses, nil
}

func (r *Runner) apply(ctx context.Context, connName string, set migrationSet, op func(Migrator, context.Context, fs.FS, string, string) error) error {
	conn, err := r.resolver.ResolveDBConnection(ctx, connName)
	if err != nil {
		return fmt.Errorf("failed to resolve connection '%s' for migration: %w", connName, err)
	}
	err = op(r.newMigrator(conn), ctx, set.fsys, conn.Type(), set.table)
	r.reconnect(conn)
	return err
}

// reconnect reopens conn, whose *sql.DB the migrate driver closed.
func (r *Runner) reconnect(conn database.DBConnection) {
	provider, ok := r.providers[conn.Type()]
	if !ok {
		logger.Warnf("No DBProvider for type '%s'. Connection '%s' is not reopened after migration.", conn.Type(), conn.Name())
		return
	}
	if _, err := provider.ForceReconnect(conn.Name()); err != nil {
		logger.Errorf("Failed to reopen connection '%s' after migration: %v", conn.Name(), err)
	}
}
