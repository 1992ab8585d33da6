// Package logger is the process-wide leveled logger.
//
// Call sites use printf-style helpers (Infof, Warnf, ...) so that packages do
// not need to carry a logger instance around. Output is produced by a zap
// console core; the level threshold is applied here so that Trace can sit
// below zap's Debug.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the verbosity threshold used by the logger.
//
// Lower values are more verbose.
type Level int

const (
	// LevelTrace enables per-event protocol logs.
	LevelTrace Level = iota
	// LevelDebug enables verbose logs intended for debugging.
	LevelDebug
	// LevelInfo enables informational logs (default).
	LevelInfo
	// LevelWarn enables only warnings and errors.
	LevelWarn
	// LevelError enables only error logs.
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

var (
	mu    sync.RWMutex
	level = LevelInfo
	sugar = newSugar(os.Stderr)
)

func newSugar(w io.Writer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core).Sugar()
}

// ParseLevel parses a log level string into a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SetOutput replaces the writer used by the global logger.
func SetOutput(w io.Writer) {
	next := newSugar(w)

	mu.Lock()
	prev := sugar
	sugar = next
	mu.Unlock()

	_ = prev.Sync()
}

// SetLevel sets the global log level threshold.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Enabled reports whether a level would be emitted by the current configuration.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

// Sync flushes buffered output.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return sugar.Sync()
}

func current(l Level) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return nil
	}
	return sugar
}

// Tracef logs at TRACE level.
func Tracef(format string, args ...any) {
	if s := current(LevelTrace); s != nil {
		s.Debugf("[trace] "+format, args...)
	}
}

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) {
	if s := current(LevelDebug); s != nil {
		s.Debugf(format, args...)
	}
}

// Infof logs at INFO level.
func Infof(format string, args ...any) {
	if s := current(LevelInfo); s != nil {
		s.Infof(format, args...)
	}
}

// Warnf logs at WARN level.
func Warnf(format string, args ...any) {
	if s := current(LevelWarn); s != nil {
		s.Warnf(format, args...)
	}
}

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) {
	if s := current(LevelError); s != nil {
		s.Errorf(format, args...)
	}
}
