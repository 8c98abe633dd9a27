package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "installBase", cfg.Repository.Bucket)
	assert.Equal(t, "gduns.json", cfg.Repository.ManifestKey)
	assert.True(t, cfg.Repository.ForcePathStyle)
	assert.Equal(t, 24*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 1, cfg.Sync.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout)
	assert.False(t, cfg.LeaseEnabled())
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoadMergesUserFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
repository:
  endpoint: "http://objects.internal:9020"
  bucket: "installBase"
  manifest_key: "manifest/gduns.json"
catalog:
  base_url: "http://catalog.internal/installbase"
sync:
  interval: 1h
  concurrency: 4
redis:
  addr: "127.0.0.1:6379"
clickhouse:
  dsn: "clickhouse://default:@localhost:9000/ibsync"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://objects.internal:9020", cfg.Repository.Endpoint)
	assert.Equal(t, "manifest/gduns.json", cfg.Repository.ManifestKey)
	assert.Equal(t, "http://catalog.internal/installbase", cfg.Catalog.BaseURL)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.True(t, cfg.LeaseEnabled())
	assert.True(t, cfg.HistoryEnabled())

	// untouched keys keep their defaults
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout)
}

func TestLoadEnvOverridesNestedKeys(t *testing.T) {
	// no t.Parallel: t.Setenv mutates process state
	t.Setenv("IBSYNC_REPOSITORY_BUCKET", "install-base-staging")
	t.Setenv("IBSYNC_CATALOG_BASE_URL", "http://catalog.staging/installbase")
	t.Setenv("IBSYNC_SYNC_INTERVAL", "2h")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "install-base-staging", cfg.Repository.Bucket)
	assert.Equal(t, "http://catalog.staging/installbase", cfg.Catalog.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.Sync.Interval)

	// keys without an override keep their defaults
	assert.Equal(t, "gduns.json", cfg.Repository.ManifestKey)
}

func TestLoadMissingUserFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "installBase", cfg.Repository.Bucket)
}
