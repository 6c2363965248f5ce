// Package config loads desktopd configuration from environment variables
// using kelseyhightower/envconfig.
//
// Sections:
//   - Server: PORT, HOST, CORS_ORIGINS
//   - Logging: LOG_LEVEL, LOG_DEV
//   - Storage: STORAGE_BACKEND (memory|file|sqlite), STORAGE_PATH,
//     STORAGE_COMPRESS, STORAGE_KEY, STORAGE_LEGACY_KEY
//   - Desktop: MANIFEST_PATH, DRAG_THRESHOLD, RESTART_DELAY,
//     VIEWPORT_WIDTH, VIEWPORT_HEIGHT, TASKMGR_INTERVAL
//   - RateLimit: RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - WebSocket: WS_RATE_MPS, WS_RATE_BURST, WS_SEND_BUFFER
package config
