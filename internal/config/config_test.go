package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMPTLIB_DATA_DIR", dir)
	t.Setenv("OPENAI_API_KEY", "from-openai-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 300*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, uint(3), cfg.Remote.RetryAttempts)
	assert.Equal(t, 100, cfg.Remote.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "from-openai-env", cfg.AI.APIKey)
	assert.Equal(t, filepath.Join(dir, "library.db"), cfg.DatabasePath())
}

func TestLoadReadsConfigFromDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMPTLIB_DATA_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
log_level: debug
save_debounce: 1s
remote:
  chunk_size: 25
ai:
  model: local-model
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.SaveDebounce)
	assert.Equal(t, 25, cfg.Remote.ChunkSize)
	assert.Equal(t, "local-model", cfg.AI.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.FastModel)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nai:\n  api_key: file-key\n"), 0o644))

	t.Setenv("PROMPTLIB_DATA_DIR", dir)
	t.Setenv("PROMPTLIB_LOG_LEVEL", "error")
	t.Setenv("PROMPTLIB_AI_API_KEY", "env-key")
	t.Setenv("PROMPTLIB_REMOTE_TIMEOUT", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Remote.Timeout)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMPTLIB_DATA_DIR", dir)

	t.Setenv("PROMPTLIB_LOG_LEVEL", "loud")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("PROMPTLIB_LOG_LEVEL", "info")
	t.Setenv("PROMPTLIB_REMOTE_CHUNK_SIZE", "0")
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("PROMPTLIB_REMOTE_CHUNK_SIZE", "10")
	t.Setenv("PROMPTLIB_REMOTE_TIMEOUT", "0s")
	_, err = Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("INFO")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))

	t.Setenv("PROMPTLIB_DATA_DIR", dir)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Remote, cfg.Remote)
}
