// Package adapter defines what every external resource connection
// (databases, object storage) has in common.
package adapter

// ResourceConnection represents a named connection to an external resource.
type ResourceConnection interface {
	// Close releases the connection.
	Close() error
	// Type returns the backend type (e.g. "sqlite", "gcs").
	Type() string
	// Name returns the configured connection name (e.g. "app", "reports").
	Name() string
}

// ResourceProvider opens and caches connections of one resource type.
type ResourceProvider interface {
	// CloseAll closes every connection opened by the provider.
	CloseAll() error
	// Type returns the resource type handled by the provider.
	Type() string
}
