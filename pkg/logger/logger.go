// Package logger builds the structured, service-scoped loggers used
// throughout the engine and server, on the same zap sugared-logger
// convention used across the rest of the module.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.SugaredLogger tagged with service, used
// to trace a single engine/server instance's lifecycle: open,
// compaction, accept loop, shutdown.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		// Logging can't fail the caller's construction path; fall back to
		// a no-op core rather than panicking inside a library.
		logger = zap.NewNop()
	}
	return logger.Sugar().With("service", service)
}
