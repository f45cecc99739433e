package logging

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields holds structured log fields
type Fields map[string]any

// Logger is the structured logging interface used across the pipeline
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type zapLogger struct {
	base *zap.Logger
}

// New creates a zap-backed logger at the given level (debug, info, warn, error)
func New(level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	base, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return &zapLogger{base: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, zapFields(fields...)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, zapFields(fields...)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, zapFields(fields...)...)
}

func (l *zapLogger) Error(msg string, fields ...Fields) {
	l.base.Error(msg, zapFields(fields...)...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(zapFields(fields)...)}
}

// zapFields flattens variadic Fields into a deterministic zap field list
func zapFields(fields ...Fields) []zap.Field {
	merged := Fields{}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

var defaultLogger = New("info")

// Configure replaces the package-level logger
func Configure(level string) {
	defaultLogger = New(level)
}

// Default returns the package-level logger
func Default() Logger {
	return defaultLogger
}

// WithFields returns a child of the package-level logger
func WithFields(fields Fields) Logger {
	return defaultLogger.WithFields(fields)
}
