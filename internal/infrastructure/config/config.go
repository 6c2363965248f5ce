package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Storage   StorageConfig
	Desktop   DesktopConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// StorageConfig selects and configures the durable layout backend.
type StorageConfig struct {
	Backend   string `envconfig:"STORAGE_BACKEND" default:"file"` // memory, file, sqlite
	Path      string `envconfig:"STORAGE_PATH" default:"/tmp/desktop-layout"`
	Compress  bool   `envconfig:"STORAGE_COMPRESS" default:"false"`
	Key       string `envconfig:"STORAGE_KEY" default:"desktop_apps_v5"`
	LegacyKey string `envconfig:"STORAGE_LEGACY_KEY" default:"seraphim_apps_v4"`
	// Consecutive failed writes before writes are suspended for WriteCooldown
	WriteFailures int           `envconfig:"STORAGE_WRITE_FAILURES" default:"3"`
	WriteCooldown time.Duration `envconfig:"STORAGE_WRITE_COOLDOWN" default:"10s"`
}

// DesktopConfig holds lifecycle engine tuning.
type DesktopConfig struct {
	ManifestPath    string        `envconfig:"MANIFEST_PATH" default:"configs/apps.yaml"`
	DragThreshold   int           `envconfig:"DRAG_THRESHOLD" default:"5"`
	RestartDelay    time.Duration `envconfig:"RESTART_DELAY" default:"1s"`
	ViewportWidth   int           `envconfig:"VIEWPORT_WIDTH" default:"1920"`
	ViewportHeight  int           `envconfig:"VIEWPORT_HEIGHT" default:"1080"`
	TaskMgrInterval time.Duration `envconfig:"TASKMGR_INTERVAL" default:"1s"`
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// WebSocketConfig holds per-connection inbound limits. Pointer-move
// streams are bursty, so the defaults are far above the HTTP ones.
type WebSocketConfig struct {
	MessagesPerSecond int `envconfig:"WS_RATE_MPS" default:"240"`
	Burst             int `envconfig:"WS_RATE_BURST" default:"480"`
	SendBuffer        int `envconfig:"WS_SEND_BUFFER" default:"256"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Storage: StorageConfig{
			Backend:       "file",
			Path:          "/tmp/desktop-layout",
			Key:           "desktop_apps_v5",
			LegacyKey:     "seraphim_apps_v4",
			WriteFailures: 3,
			WriteCooldown: 10 * time.Second,
		},
		Desktop: DesktopConfig{
			ManifestPath:    "configs/apps.yaml",
			DragThreshold:   5,
			RestartDelay:    time.Second,
			ViewportWidth:   1920,
			ViewportHeight:  1080,
			TaskMgrInterval: time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		WebSocket: WebSocketConfig{
			MessagesPerSecond: 240,
			Burst:             480,
			SendBuffer:        256,
		},
	}
}
