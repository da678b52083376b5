// Package logging provides the leveled, structured logger used across
// xtask's kernel, Communication Server and ring packages. It wraps
// go.uber.org/zap behind a logr.Logger-shaped facade, the same pairing
// jra3-system-agent's cmd/main.go uses (zapr.NewLogger(zap.New(...))).
package logging

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is xtask's leveled logger. It keeps the Debug/Info/Warn/Error
// surface (key/value arguments, no Printf-style methods) the block-device runner's internal/logging.Logger exposes, so every
// call site in kernel/cs/vchan/ring/mailbox reads the same, but the sink is
// a real structured logger instead of the standard library's log.Logger.
type Logger struct {
	base logr.Logger
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Config holds logging configuration.
type Config struct {
	// Level selects the minimum enabled level: Debug, Info, Warn or Error.
	// Warn lines are emitted at info level (see Warn), so LevelWarn and
	// LevelError suppress them.
	Level LogLevel
	// Development enables human-readable console output; left false (as
	// Default leaves it) the output is JSON.
	Development bool
}

// LogLevel mirrors the block-device runner's LogLevel enum.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo}
}

// New creates a new Logger from the given configuration.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var zcfg zap.Config
	if config.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(config.Level.zapLevel())

	zl, err := zcfg.Build()
	if err != nil {
		// Fall back to a no-op core rather than panic: a logger must never
		// be the reason a kernel or CS fails to start.
		zl = zap.NewNop()
	}

	return &Logger{base: zapr.NewLogger(zl)}
}

// Default returns the process-wide default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Named returns a child logger scoped to the given component name, e.g.
// logging.Default().Named("cs").Named("tile-0").
func (l *Logger) Named(name string) *Logger {
	return &Logger{base: l.base.WithName(name)}
}

// With returns a child logger carrying the given key/value pairs on every
// subsequent line, e.g. l.With("kernel", id).Info("started").
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{base: l.base.WithValues(keysAndValues...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.base.V(1).Info(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Info("WARN: "+msg, args...) }
func (l *Logger) Error(msg string, err error, args ...any) {
	l.base.Error(err, msg, args...)
}

// Logr exposes the underlying logr.Logger for components that accept one
// directly (e.g. third-party libraries wired via the logr facade).
func (l *Logger) Logr() logr.Logger { return l.base }
