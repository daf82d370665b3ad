package storage

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	storageConfig "github.com/tigerroll/sheetload/pkg/batch/adapter/storage/config"
	coreConfig "github.com/tigerroll/sheetload/pkg/batch/core/config"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// ConnectionFactory opens one connection of a provider's type.
type ConnectionFactory func(cfg storageConfig.StorageConfig, name string) (StorageConnection, error)

// BaseProvider caches the connections opened by a ConnectionFactory.
type BaseProvider struct {
	cfg         *coreConfig.Config
	storageType string
	factory     ConnectionFactory
	connections map[string]StorageConnection
	mu          sync.RWMutex
}

// NewBaseProvider creates a provider of storageType connections.
func NewBaseProvider(cfg *coreConfig.Config, storageType string, factory ConnectionFactory) *BaseProvider {
	return &BaseProvider{
		cfg:         cfg,
		storageType: storageType,
		factory:     factory,
		connections: make(map[string]StorageConnection),
	}
}

// GetConnection returns the cached connection for name, opening it on first use.
func (p *BaseProvider) GetConnection(name string) (StorageConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open(name)
}

// open must be called with mu held.
func (p *BaseProvider) open(name string) (StorageConnection, error) {
	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	storageCfg, err := storageConfig.StorageConfigFor(p.cfg, name)
	if err != nil {
		return nil, err
	}
	if storageCfg.Type != p.storageType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, p.storageType, storageCfg.Type)
	}

	conn, err := p.factory(storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage connection '%s': %w", p.storageType, name, err)
	}
	p.connections[name] = conn
	logger.Debugf("Created new %s storage connection '%s'.", p.storageType, name)
	return conn, nil
}

// ForceReconnect closes the named connection and opens it again.
func (p *BaseProvider) ForceReconnect(name string) (StorageConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		if err := conn.Close(); err != nil {
			logger.Warnf("Failed to gracefully close %s storage connection '%s' during force reconnect: %v", p.storageType, name, err)
		}
		delete(p.connections, name)
	}
	logger.Debugf("Forcing reconnect for %s storage connection '%s'.", p.storageType, name)
	return p.open(name)
}

// CloseAll closes all connections managed by this provider.
func (p *BaseProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close %s storage connection '%s': %w", p.storageType, name, err))
		}
		delete(p.connections, name)
	}
	return result.ErrorOrNil()
}

// Type returns the storage type handled by this provider.
func (p *BaseProvider) Type() string {
	return p.storageType
}

var _ StorageProvider = (*BaseProvider)(nil)
