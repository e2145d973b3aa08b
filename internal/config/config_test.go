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
	cfg, found, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, found)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60*time.Second, cfg.Mastering.Timeout)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrency)
	assert.Empty(t, cfg.Mastering.ShuffleSecret)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: ":9000"
mastering:
  base_url: "http://mastering.internal/"
  timeout_seconds: 5
  shuffle_secret: "from-file"
batch:
  max_concurrency: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("MEX_APP_MASTERING_SHUFFLE_SECRET", "from-env")
	t.Setenv("MEX_APP_LOG_LEVEL", "debug")

	cfg, found, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, "http://mastering.internal", cfg.Mastering.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Mastering.Timeout)
	assert.Equal(t, "from-env", cfg.Mastering.ShuffleSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1, cfg.Batch.MaxConcurrency)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, _, err := Load(dir)
	assert.Error(t, err)
}
