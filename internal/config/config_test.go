package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 470*320, cfg.Camera.MinPreviewPixels)
	assert.Equal(t, 1280*720, cfg.Camera.MaxPreviewPixels)
	assert.Equal(t, 1000, cfg.Capture.BulkScanDelayMS)
	assert.NotEmpty(t, cfg.Storage.HistoryPath)
	assert.NotEmpty(t, cfg.Storage.PrefsPath)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero min pixels", func(c *Config) { c.Camera.MinPreviewPixels = 0 }},
		{"inverted pixel bounds", func(c *Config) { c.Camera.MaxPreviewPixels = c.Camera.MinPreviewPixels - 1 }},
		{"negative bulk delay", func(c *Config) { c.Capture.BulkScanDelayMS = -1 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero payload cap", func(c *Config) { c.Server.MaxPayloadMB = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanbridge.yaml")
	content := []byte(`
log_level: debug
capture:
  bulk_scan_delay_ms: 250
server:
  port: 9000
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.Capture.BulkScanDelayMS)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, 470*320, cfg.Camera.MinPreviewPixels)
	assert.Equal(t, path, loader.ConfigFileUsed())
}

func TestLoadWithFileMissing(t *testing.T) {
	loader := NewLoaderWith(viper.New())
	_, err := loader.LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: shouty\n"), 0o644))

	loader := NewLoaderWith(viper.New())
	_, err := loader.LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SCANBRIDGE_LOG_LEVEL", "warn")

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
