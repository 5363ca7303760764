// Package config holds the process-level configuration: file paths, camera
// negotiation bounds, capture timing, and server settings. Per-session scan
// options are not configured here; they arrive with each bridge request.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Storage StorageConfig `mapstructure:"storage"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Capture CaptureConfig `mapstructure:"capture"`
	Server  ServerConfig  `mapstructure:"server"`
}

// StorageConfig locates the persisted stores.
type StorageConfig struct {
	HistoryPath string `mapstructure:"history_path"`
	PrefsPath   string `mapstructure:"prefs_path"`
}

// CameraConfig bounds preview-size negotiation.
type CameraConfig struct {
	MinPreviewPixels int `mapstructure:"min_preview_pixels"`
	MaxPreviewPixels int `mapstructure:"max_preview_pixels"`
}

// CaptureConfig tunes the capture loop.
type CaptureConfig struct {
	BulkScanDelayMS int `mapstructure:"bulk_scan_delay_ms"`
}

// ServerConfig holds the bridge server settings.
type ServerConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	CORSOrigin        string `mapstructure:"cors_origin"`
	MaxPayloadMB      int64  `mapstructure:"max_payload_mb"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	MaxDataPerDayMB   int64  `mapstructure:"max_data_per_day_mb"`
}

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			HistoryPath: filepath.Join(dataDir, "history.yaml"),
			PrefsPath:   filepath.Join(dataDir, "prefs.yaml"),
		},
		Camera: CameraConfig{
			MinPreviewPixels: 470 * 320,
			MaxPreviewPixels: 1280 * 720,
		},
		Capture: CaptureConfig{
			BulkScanDelayMS: 1000,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8089,
			CORSOrigin:   "*",
			MaxPayloadMB: 10,
		},
	}
}

// Validate rejects configurations the process cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Camera.MinPreviewPixels <= 0 || c.Camera.MaxPreviewPixels < c.Camera.MinPreviewPixels {
		return fmt.Errorf("invalid preview pixel bounds [%d, %d]",
			c.Camera.MinPreviewPixels, c.Camera.MaxPreviewPixels)
	}
	if c.Capture.BulkScanDelayMS < 0 {
		return fmt.Errorf("negative bulk scan delay %d", c.Capture.BulkScanDelayMS)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxPayloadMB <= 0 {
		return fmt.Errorf("invalid max payload %d MB", c.Server.MaxPayloadMB)
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "scanbridge")
	}
	return ".scanbridge"
}
