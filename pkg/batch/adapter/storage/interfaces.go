// Package storage defines the object storage connections sheetload archives
// import artifacts to (local file system, GCS).
package storage

import (
	"context"
	"io"

	coreAdapter "github.com/tigerroll/sheetload/pkg/batch/core/adapter"
)

// StorageExecutor defines generic storage operations.
type StorageExecutor interface {
	// Upload writes data to bucket/objectName. contentType is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download returns a ReadCloser which must be closed by the caller.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object under prefix.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the specified object from the bucket.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// StorageConnection is a named connection to an object store.
type StorageConnection interface {
	coreAdapter.ResourceConnection
	StorageExecutor
}

// StorageProvider opens and caches the connections of one storage type.
type StorageProvider interface {
	coreAdapter.ResourceProvider
	// GetConnection retrieves the StorageConnection with the specified name.
	GetConnection(name string) (StorageConnection, error)
	// ForceReconnect closes and re-opens the named connection.
	ForceReconnect(name string) (StorageConnection, error)
}

// StorageConnectionResolver resolves configured connection names to connections.
type StorageConnectionResolver interface {
	ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error)
}
