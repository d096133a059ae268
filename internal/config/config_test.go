package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "brpbridge", cfg.Name)
	assert.Equal(t, 15702, cfg.BRP.Port)
	assert.Equal(t, "localhost", cfg.BRP.Host)
	assert.True(t, cfg.Discovery.Enabled)
	assert.False(t, cfg.Discovery.Debug)
	assert.Equal(t, 30*time.Second, cfg.GetBRPTimeout())
	assert.Equal(t, 24*time.Hour, cfg.GetLogMaxAge())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BRP.Port, cfg.BRP.Port)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
brp:
  port: 20222
  timeout: 5s
discovery:
  enabled: true
  debug: true
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20222, cfg.BRP.Port)
	assert.Equal(t, 5*time.Second, cfg.GetBRPTimeout())
	assert.True(t, cfg.Discovery.Debug)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", cfg.BRP.Host)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brp: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.BRP.Port = 16000
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, loaded.BRP.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("BRP_PORT", func(t *testing.T) {
		t.Setenv("BRP_PORT", "19000")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 19000, cfg.BRP.Port)
	})

	t.Run("BRP_PORT invalid value ignored", func(t *testing.T) {
		t.Setenv("BRP_PORT", "not-a-port")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 15702, cfg.BRP.Port)
	})

	t.Run("BRP_HOST", func(t *testing.T) {
		t.Setenv("BRP_HOST", "10.0.0.5")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "10.0.0.5", cfg.BRP.Host)
	})

	t.Run("BRPBRIDGE_DEBUG", func(t *testing.T) {
		t.Setenv("BRPBRIDGE_DEBUG", "true")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Discovery.Debug)
	})

	t.Run("BRPBRIDGE_LOG_DIR", func(t *testing.T) {
		t.Setenv("BRPBRIDGE_LOG_DIR", "/var/log/bridge")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/var/log/bridge", cfg.Logs.Dir)
	})

	t.Run("env wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("brp:\n  port: 17000\n"), 0644))
		t.Setenv("BRP_PORT", "18000")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 18000, cfg.BRP.Port)
	})
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BRP.Timeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.GetBRPTimeout())

	cfg.Logs.MaxAge = ""
	assert.Equal(t, 24*time.Hour, cfg.GetLogMaxAge())
}
