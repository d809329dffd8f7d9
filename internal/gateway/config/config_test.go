package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "data")
	t.Setenv("PROJECT_STORE_PATH", "")
	t.Setenv("CONTENT_STORE_DIR", "")
	t.Setenv("CONTENT_MINIO_ENDPOINT", "")
	t.Setenv("CONTENT_S3_ENDPOINT", "")
	t.Setenv("COMPILER_TIMEOUT", "")
	t.Setenv("IMPORT_MAX_ENTRIES", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Port)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "data/projects.json", cfg.ProjectStore.Path)
	assert.Equal(t, "data/contents", cfg.Content.Dir)
	assert.False(t, cfg.Content.S3.Enabled)
	assert.Equal(t, 60*time.Second, cfg.Compiler.Timeout)
	assert.Equal(t, 2000, cfg.Import.MaxEntries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("CONTENT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("CONTENT_S3_USE_SSL", "false")
	t.Setenv("COMPILER_TIMEOUT", "5")
	t.Setenv("IMPORT_MAX_FILE_BYTES", "4096")

	cfg, err := Load([]string{"-port", "7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)
	assert.False(t, cfg.IsLocal())
	assert.True(t, cfg.Content.S3.Enabled)
	assert.False(t, cfg.Content.S3.UseSSL)
	assert.Equal(t, 5*time.Second, cfg.Compiler.Timeout)
	assert.Equal(t, int64(4096), cfg.Import.MaxFileBytes)

	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
}
