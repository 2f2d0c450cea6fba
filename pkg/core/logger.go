package core

import (
	"go.uber.org/zap"
)

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})

	// With returns a child logger carrying the given key/value pairs
	With(keysAndValues ...interface{}) Logger
}

// zapLogger implements Logger on top of a zap SugaredLogger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// NewDefaultLogger creates a logger using zap's production configuration.
// Falls back to a no-op logger if the configuration cannot be built.
func NewDefaultLogger() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return NewNopLogger()
	}
	return NewZapLogger(l)
}

// NewDevelopmentLogger creates a human-readable console logger
func NewDevelopmentLogger() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NewNopLogger()
	}
	return NewZapLogger(l)
}

// NewNopLogger returns a logger that discards everything.
// Library types default to it so nothing is written unless a logger is injected.
func NewNopLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) Error(args ...interface{}) { l.sugar.Error(args...) }

func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *zapLogger) Warn(args ...interface{}) { l.sugar.Warn(args...) }

func (l *zapLogger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

func (l *zapLogger) Info(args ...interface{}) { l.sugar.Info(args...) }

func (l *zapLogger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

func (l *zapLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(keysAndValues...)}
}
