package storage

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	storageConfig "github.com/tigerroll/sheetload/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// ConnectionResolver dispatches connection names to the provider of their configured type.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	cfg       *coreConfig.Config
}

// ConnectionResolverParams defines the dependencies for NewConnectionResolver.
type ConnectionResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Cfg       *coreConfig.Config
}

// NewConnectionResolver creates a resolver over every provider in the storage_providers group.
func NewConnectionResolver(p ConnectionResolverParams) *ConnectionResolver {
	providers := make(map[string]StorageProvider, len(p.Providers))
	for _, provider := range p.Providers {
		providers[provider.Type()] = provider
	}
	return &ConnectionResolver{providers: providers, cfg: p.Cfg}
}

// ResolveStorageConnection returns the connection configured under sheetload.storage.<name>.
func (r *ConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error) {
	cfg, err := storageConfig.StorageConfigFor(r.cfg, name)
	if err != nil {
		return nil, err
	}
	provider, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", cfg.Type, name)
	}
	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, cfg.Type, err)
	}
	return conn, nil
}

// CloseAll closes the connections of every provider.
func (r *ConnectionResolver) CloseAll() error {
	var result *multierror.Error
	for _, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	logger.Debugf("Storage connections closed.")
	return result.ErrorOrNil()
}

var _ StorageConnectionResolver = (*ConnectionResolver)(nil)

// Module provides the StorageConnectionResolver. Providers are added by the
// local and gcs packages.
var Module = fx.Options(
	fx.Provide(NewConnectionResolver),
	fx.Provide(func(r *ConnectionResolver) StorageConnectionResolver { return r }),
	fx.Invoke(func(lc fx.Lifecycle, r *ConnectionResolver) {
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return r.CloseAll() }})
	}),
)
