package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageConfig "github.com/tigerroll/sheetload/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/sheetload/pkg/batch/adapter/storage/local"
	coreConfig "github.com/tigerroll/sheetload/pkg/batch/core/config"
)

func TestLocalAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: baseDir, BucketName: "reports"}, "archive")
	require.NoError(t, err)
	assert.Equal(t, "local", conn.Type())
	assert.Equal(t, "archive", conn.Name())

	require.NoError(t, conn.Upload(ctx, "", "import-errors/employee_group/run-1.parquet", strings.NewReader("PAR1"), "application/vnd.apache.parquet"))
	require.NoError(t, conn.Upload(ctx, "", "import-errors/category/run-2.parquet", strings.NewReader("PAR1"), "application/vnd.apache.parquet"))
	require.NoError(t, conn.Upload(ctx, "other", "x.txt", strings.NewReader("x"), "text/plain"))

	_, err = os.Stat(filepath.Join(baseDir, "reports", "import-errors", "employee_group", "run-1.parquet"))
	require.NoError(t, err)

	r, err := conn.Download(ctx, "reports", "import-errors/employee_group/run-1.parquet")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "PAR1", string(body))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "", "import-errors/employee_group", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"import-errors/employee_group/run-1.parquet"}, names)

	require.NoError(t, conn.DeleteObject(ctx, "", "import-errors/employee_group/run-1.parquet"))
	require.NoError(t, conn.DeleteObject(ctx, "", "import-errors/employee_group/run-1.parquet"))
	_, err = conn.Download(ctx, "", "import-errors/employee_group/run-1.parquet")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsEscapingPaths(t *testing.T) {
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)

	err = conn.Upload(context.Background(), "", "../../etc/passwd", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside of base_dir")
}

func TestLocalAdapter_RequiresBaseDir(t *testing.T) {
	_, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local"}, "archive")
	assert.ErrorContains(t, err, "base_dir must be specified")
}

func TestLocalProvider(t *testing.T) {
	cfg := coreConfig.NewConfig()
	cfg.Sheetload.Storage["archive"] = map[string]interface{}{"type": "local", "base_dir": t.TempDir()}
	cfg.Sheetload.Storage["cloud"] = map[string]interface{}{"type": "gcs", "bucket_name": "reports"}

	p := local.NewLocalProvider(cfg)
	assert.Equal(t, "local", p.Type())

	first, err := p.GetConnection("archive")
	require.NoError(t, err)
	second, err := p.GetConnection("archive")
	require.NoError(t, err)
	assert.Same(t, first, second)

	reconnected, err := p.ForceReconnect("archive")
	require.NoError(t, err)
	assert.NotSame(t, first, reconnected)

	_, err = p.GetConnection("cloud")
	assert.ErrorContains(t, err, "type mismatch")
	_, err = p.GetConnection("missing")
	assert.ErrorContains(t, err, "not found under sheetload.storage")

	assert.NoError(t, p.CloseAll())
}
