package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global backs FromContext when a context carries no logger.
	//nolint:gochecknoglobals // Every package logs through it.
	global *zap.SugaredLogger
	// atomicLevel is shared by loggers built with a nil level.
	//nolint:gochecknoglobals // Changed at runtime by --log-level and log_level.
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Logging must work before configuration is read.
	global = New(nil)
}

// New creates a console logger on stderr.
// A nil level uses the shared atomic level, so SetLevel affects it.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = atomicLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core, options...).Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = "time"
	config.MessageKey = "message"
	config.NameKey = "logger"
	config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeDuration = zapcore.StringDurationEncoder
	config.ConsoleSeparator = ", "

	return config
}

// ParseLogLevel converts a level name such as "debug" or "warning" to a zap level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}

	level, err := zapcore.ParseLevel(name)
	if err != nil || name == "" {
		return zapcore.InfoLevel, false
	}

	return level, true
}

// Level returns the shared logging level.
func Level() zapcore.Level {
	return atomicLevel.Level()
}

// SetLevel changes the shared logging level.
func SetLevel(level zapcore.Level) {
	atomicLevel.SetLevel(level)
}

// SetLevelName parses name and applies it.
// An empty name keeps the current level; an unknown one is reported as false.
func SetLevelName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}

	level, ok := ParseLogLevel(name)
	if !ok {
		return false
	}

	SetLevel(level)

	return true
}

// DebugKV logs a message with key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info logs at info level.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

// InfoKV logs a message with key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// Warn logs at warning level.
func Warn(ctx context.Context, args ...any) {
	FromContext(ctx).Warn(args...)
}

// WarnKV logs a message with key-value pairs at warning level.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV logs a message with key-value pairs at error level.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
