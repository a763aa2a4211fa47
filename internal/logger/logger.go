// Package logger provides structured logging for the registrar sync server.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Initialize sets up the global logger. Safe to call more than once; only the
// first call takes effect.
func Initialize(debug bool) {
	once.Do(func() {
		var cfg zap.Config
		if debug {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// Fall back to a no-op logger rather than failing startup
			l = zap.NewNop()
		}
		log = l.Sugar()
	})
}

func get() *zap.SugaredLogger {
	if log == nil {
		Initialize(false)
	}
	return log
}

// Debug logs a message at debug level
func Debug(args ...any) { get().Debug(args...) }

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) { get().Debugf(format, args...) }

// Info logs a message at info level
func Info(args ...any) { get().Info(args...) }

// Infof logs a formatted message at info level
func Infof(format string, args ...any) { get().Infof(format, args...) }

// Warn logs a message at warn level
func Warn(args ...any) { get().Warn(args...) }

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...any) { get().Warnf(format, args...) }

// Error logs a message at error level
func Error(args ...any) { get().Error(args...) }

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits
func Fatalf(format string, args ...any) { get().Fatalf(format, args...) }

// Sync flushes buffered log entries
func Sync() error { return get().Sync() }
