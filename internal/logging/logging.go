// Package logging wires the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Init builds the global sugared logger at the given level.
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	z, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = z.Sugar()
	return nil
}

// Sync flushes buffered log entries. Safe to call before Init.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// L returns the global sugared logger, initializing at info level if Init
// has not been called.
func L() *zap.SugaredLogger {
	if logger == nil {
		_ = Init("info")
	}
	return logger
}
