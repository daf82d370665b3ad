package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageAdapter "github.com/tigerroll/sheetload/pkg/batch/adapter/storage"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage/local"
	coreConfig "github.com/tigerroll/sheetload/pkg/batch/core/config"
)

func TestConnectionResolver(t *testing.T) {
	cfg := coreConfig.NewConfig()
	cfg.Sheetload.Storage["archive"] = map[string]interface{}{"type": "local", "base_dir": t.TempDir()}
	cfg.Sheetload.Storage["cloud"] = map[string]interface{}{"type": "gcs", "bucket_name": "reports"}

	r := storageAdapter.NewConnectionResolver(storageAdapter.ConnectionResolverParams{
		Providers: []storageAdapter.StorageProvider{local.NewLocalProvider(cfg)},
		Cfg:       cfg,
	})

	conn, err := r.ResolveStorageConnection(context.Background(), "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", conn.Name())

	_, err = r.ResolveStorageConnection(context.Background(), "cloud")
	assert.ErrorContains(t, err, "no storage provider found for type 'gcs'")

	_, err = r.ResolveStorageConnection(context.Background(), "nope")
	assert.Error(t, err)

	assert.NoError(t, r.CloseAll())
}
