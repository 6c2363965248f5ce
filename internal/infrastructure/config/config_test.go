package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "desktop_apps_v5", cfg.Storage.Key)
	assert.Equal(t, "seraphim_apps_v4", cfg.Storage.LegacyKey)
	assert.Equal(t, 3, cfg.Storage.WriteFailures)
	assert.Equal(t, 10*time.Second, cfg.Storage.WriteCooldown)

	assert.Equal(t, 5, cfg.Desktop.DragThreshold)
	assert.Equal(t, time.Second, cfg.Desktop.RestartDelay)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":             "9000",
		"LOG_LEVEL":        "debug",
		"LOG_DEV":          "true",
		"STORAGE_BACKEND":  "sqlite",
		"STORAGE_PATH":     "/var/lib/desktop/layout.db",
		"STORAGE_COMPRESS": "true",
		"DRAG_THRESHOLD":   "8",
		"RESTART_DELAY":    "250ms",
		"WS_RATE_MPS":      "60",
	}

	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/desktop/layout.db", cfg.Storage.Path)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, 8, cfg.Desktop.DragThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Desktop.RestartDelay)
	assert.Equal(t, 60, cfg.WebSocket.MessagesPerSecond)

	// Untouched sections keep defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	require.NoError(t, os.Setenv("DRAG_THRESHOLD", "five"))
	defer os.Unsetenv("DRAG_THRESHOLD")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 5, cfg.Desktop.DragThreshold)
}
