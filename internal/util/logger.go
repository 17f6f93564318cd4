package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger builds the process logger for one catalog-sync command. Logs go
// to stderr because stdout carries the run report, and every entry is
// tagged with the command name plus any extra fields.
func InitLogger(env, command string, fields ...zap.Field) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	built, err := config.Build()
	if err != nil {
		return err
	}

	logger = built.Named(serviceName).With(append([]zap.Field{zap.String("command", command)}, fields...)...)
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the process logger, or a development logger when
// InitLogger has not run (tests)
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes buffered entries. The error is ignored since stderr
// cannot be synced on every platform.
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
