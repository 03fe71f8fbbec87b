// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output with debug level enabled
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Service starting", zap.String("port", "8000"))
//	logger.Error("Snapshot save failed", zap.Error(err))
package logging
