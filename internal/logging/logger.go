// Package logging provides structured logging for runbox's sandbox and
// pipeline packages: a zap singleton plus field constructors for the keys
// those packages log against repeatedly (stage, container, volume, group).
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	once   sync.Once
)

// Init initializes the global logger. Safe to call multiple times.
func Init() {
	once.Do(func() {
		var cfg zap.Config
		if os.Getenv("RUNBOX_ENV") == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "ts"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		var err error
		logger, err = cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// Fallback to nop logger
			logger = zap.NewNop()
		}
		sugar = logger.Sugar()
	})
}

// L returns the global structured logger
func L() *zap.Logger {
	if logger == nil {
		Init()
	}
	return logger
}

// S returns the global sugared logger (printf-style)
func S() *zap.SugaredLogger {
	if sugar == nil {
		Init()
	}
	return sugar
}

// Sync flushes any buffered log entries. Call before app exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// WithContext returns a logger with additional structured fields
func WithContext(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Stage tags a log entry with the declarative stage key it concerns (§4.7).
func Stage(key string) zap.Field { return zap.String("stage", key) }

// Group tags a log entry with the pipeline group name it concerns (§4.8).
func Group(name string) zap.Field { return zap.String("group", name) }

// Container tags a log entry with the backing container ID (§4.4).
func Container(id string) zap.Field { return zap.String("container_id", id) }

// Volume tags a log entry with the backing volume name (§4.6).
func Volume(name string) zap.Field { return zap.String("volume", name) }

// ForStage returns a sugared logger with the stage key pre-attached, for
// call sites that log more than once about the same stage.
func ForStage(key string) *zap.SugaredLogger {
	return S().With(Stage(key))
}
