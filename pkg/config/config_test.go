package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingCacheDirFails(t *testing.T) {
	t.Setenv("CACHE_DIR", "")
	t.Setenv("READERD_CONFIG_FILE", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
	assert.Contains(t, err.Error(), "CACHE_DIR")
	assert.Contains(t, err.Error(), "cache_dir")
}

func TestNew_WithEnvVar(t *testing.T) {
	t.Setenv("CACHE_DIR", "/tmp/readerd-cache")
	t.Setenv("READERD_CONFIG_FILE", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/readerd-cache", cfg.CacheDir)
}

func TestNew_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
cache_dir: /data/readerd-cache
server_port: 8080
log_level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))
	t.Setenv("READERD_CONFIG_FILE", configPath)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/readerd-cache", cfg.CacheDir)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
cache_dir: /data/from-file
server_port: 8080
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))
	t.Setenv("READERD_CONFIG_FILE", configPath)
	t.Setenv("CACHE_DIR", "/data/from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-env", cfg.CacheDir)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestNew_Defaults(t *testing.T) {
	t.Setenv("CACHE_DIR", "/tmp/test-cache")
	t.Setenv("READERD_CONFIG_FILE", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, int64(512*1024*1024), cfg.CacheBudgetBytes)
	assert.Equal(t, "127.0.0.1", cfg.ServerHost)
	assert.Equal(t, 0, cfg.ServerPort)
	assert.Equal(t, uint32(3), cfg.PrefetchAhead)
	assert.Equal(t, uint32(1), cfg.PrefetchBehind)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNew_PrefetchWindowFromEnv(t *testing.T) {
	t.Setenv("CACHE_DIR", "/tmp/test-cache")
	t.Setenv("PREFETCH_AHEAD", "5")
	t.Setenv("PREFETCH_BEHIND", "2")
	t.Setenv("READERD_CONFIG_FILE", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), cfg.PrefetchAhead)
	assert.Equal(t, uint32(2), cfg.PrefetchBehind)
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest("/tmp/whatever")
	assert.Equal(t, "/tmp/whatever", cfg.CacheDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.ServerPort)
}
