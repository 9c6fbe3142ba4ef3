// Package logger provides the leveled logger used throughout the spectra pipeline.
// It wraps the standard `log` package, prefixes every line with a timestamp and a
// level tag, and filters messages below the configured level.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
)

// String returns the tag written in front of each message of this level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("DEBUG", "INFO", "WARN", "ERROR", "FATAL", case-insensitive)
// into a LogLevel. The boolean is false for unknown names, in which case LevelInfo is returned.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO", "":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Logger is a leveled logger handle. It is safe for concurrent use.
type Logger struct {
	mu    sync.RWMutex
	out   *log.Logger
	level LogLevel
}

// New creates a Logger writing to w. Lines look like
// "2006/01/02 15:04:05 [INFO] message".
func New(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		out:   log.New(w, "", log.LstdFlags),
		level: level,
	}
}

// SetLevel changes the minimum level written by this logger.
// Unknown values fall back to INFO and a warning is emitted through the logger itself.
func (l *Logger) SetLevel(level string) {
	lvl, ok := ParseLevel(level)
	l.mu.Lock()
	l.level = lvl
	l.mu.Unlock()
	if !ok {
		l.Warnf("Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// Level returns the current minimum level.
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if level < l.Level() {
		return
	}
	l.out.Output(3, fmt.Sprintf("["+level.String()+"] "+format, v...))
}

// Debugf formats and outputs a DEBUG level log message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

// Infof formats and outputs an INFO level log message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

// Warnf formats and outputs a WARN level log message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarn, format, v...)
}

// Errorf formats and outputs an ERROR level log message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}

// Fatalf formats and outputs a FATAL level log message,
// then terminates the program by calling os.Exit(1).
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.out.Output(2, fmt.Sprintf("[FATAL] "+format, v...))
	os.Exit(1)
}

var (
	std      = New(os.Stderr, LevelInfo)
	initOnce sync.Once
)

// Init configures the process-wide logger exactly once and returns it.
// Later calls ignore their arguments and return the already configured handle.
func Init(w io.Writer, level string) *Logger {
	initOnce.Do(func() {
		l := New(w, LevelInfo)
		l.SetLevel(level)
		std = l
	})
	return std
}

// Default returns the process-wide logger.
func Default() *Logger {
	return std
}

// OrDefault returns l, or the process-wide logger when l is nil.
func OrDefault(l *Logger) *Logger {
	if l == nil {
		return std
	}
	return l
}

// Infof logs through the process-wide logger.
func Infof(format string, v ...interface{}) {
	std.logf(LevelInfo, format, v...)
}

// Warnf logs through the process-wide logger.
func Warnf(format string, v ...interface{}) {
	std.logf(LevelWarn, format, v...)
}
