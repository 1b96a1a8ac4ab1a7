// Package cpclog wraps zap with a small Debug/Info/Warn/Error/Fatal API,
// level config, and a JSON-vs-console switch, while emitting structured
// fields.
package cpclog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Config holds a level, a prefix (promoted to a zap field), and a
// JSON-vs-console switch.
type Config struct {
	Level  string
	Prefix string
	JSON   bool
}

// DefaultConfig returns info level, prefix "cpcd", console (non-JSON)
// output.
func DefaultConfig() *Config {
	return &Config{Level: "info", Prefix: "cpcd", JSON: false}
}

// New builds a Logger from config.
func New(config *Config) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	var level zapcore.Level
	if err := level.Set(config.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	if !config.JSON {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	base, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	logger := base.Sugar()
	if config.Prefix != "" {
		logger = logger.With("component", config.Prefix)
	}
	return &Logger{sugar: logger}, nil
}

// Discard returns a Logger that drops everything, used when no logger is
// configured.
func Discard() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// OrDiscard returns log, or a discard logger if log is nil — pkg/miner and
// pkg/api accept a possibly-nil *Logger and run this at construction time.
func OrDiscard(log *Logger) *Logger {
	if log == nil {
		return Discard()
	}
	return log
}

func (l *Logger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.sugar.Error(args...) }
func (l *Logger) Fatal(args ...interface{}) { l.sugar.Fatal(args...) }

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
func (l *Logger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
