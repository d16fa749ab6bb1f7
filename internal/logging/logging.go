// Package logging configures the process-wide zap logger.
// All packages log through the helpers here so the encoder and level
// are set exactly once, in main.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// LevelEnvVar overrides the -log-level flag when set.
// Valid values: "debug", "info", "warn", "error".
const LevelEnvVar = "SWITCHNODE_LOG_LEVEL"

// Initialize builds the global logger at the given level. An empty level
// falls back to the environment variable, then to "info".
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LevelEnvVar)
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l
	return nil
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) { logger.Debug(msg, fields...) }

// Info logs an info message.
func Info(msg string, fields ...zap.Field) { logger.Info(msg, fields...) }

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) { logger.Warn(msg, fields...) }

// Error logs an error message.
func Error(msg string, fields ...zap.Field) { logger.Error(msg, fields...) }

// Fatal logs a fatal message and exits.
func Fatal(msg string, fields ...zap.Field) { logger.Fatal(msg, fields...) }

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = logger.Sync()
}
