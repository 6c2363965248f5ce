// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output, component name under "component"
//   - Development: colored console output
//
// Engine components receive a *zap.Logger named after themselves
// (logger.Component("store")) and attach the application identifier with
// ForApp when logging about a specific application.
//
// Example Usage:
//
//	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	storeLog := logger.Component("store")
//	logging.ForApp(storeLog, "browser").Warn("Persist failed", zap.Error(err))
package logging
