package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
}

func TestLoadFileAppliesNestedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"server": {"host": "0.0.0.0", "port": 8080},
		"security": {
			"auth": {"enabled": true, "api_keys": ["k1", "k2"]},
			"rate_limit": {"enabled": false, "requests_per_window": 10, "window_secs": 5}
		},
		"logging": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, Defaults(), cfg)
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("SHELL_TUNNEL_HOST", "10.0.0.1")
	t.Setenv("SHELL_TUNNEL_PORT", "9999")
	t.Setenv("SHELL_TUNNEL_API_KEY", "env-key")
	t.Setenv("SHELL_TUNNEL_LOG_LEVEL", "warn")

	cfg := EnvOverlay(Defaults())
	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, uint16(9999), cfg.Port)
	assert.True(t, cfg.Auth.Enabled)
	assert.Contains(t, cfg.Auth.APIKeys, "env-key")
	assert.Equal(t, "warn", cfg.LogLevel)
}
