package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// LevelError only logs errors
	LevelError LogLevel = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs general information, warnings and errors
	LevelInfo
	// LevelDebug logs detailed debug information and all above
	LevelDebug
	// LevelTrace logs very detailed trace information and all above
	LevelTrace
)

var levelNames = map[LogLevel]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a level name (as accepted by LOG_LEVEL) to a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	for level, levelName := range levelNames {
		if levelName == name {
			return level, true
		}
	}
	return LevelInfo, false
}

// charmLevels maps our levels onto the backend. Trace has no backend
// equivalent and is emitted at debug.
var charmLevels = map[LogLevel]log.Level{
	LevelError: log.ErrorLevel,
	LevelWarn:  log.WarnLevel,
	LevelInfo:  log.InfoLevel,
	LevelDebug: log.DebugLevel,
	LevelTrace: log.DebugLevel,
}

// core is shared by a logger and every logger derived from it with
// WithPrefix, so level and output changes reach all of them.
type core struct {
	mu    sync.RWMutex
	level LogLevel
	base  *log.Logger
}

// Logger provides structured logging capabilities
type Logger struct {
	prefix string
	core   *core
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger("VSHELL")

		// Set initial log level from environment
		if name := os.Getenv("LOG_LEVEL"); name != "" {
			if level, ok := ParseLevel(name); ok {
				defaultLogger.SetLevel(level)
			}
		}

		// Enable debug logging if FUSE_DEBUG is set
		if os.Getenv("FUSE_DEBUG") != "" {
			defaultLogger.SetLevel(LevelDebug)
		}
	})
	return defaultLogger
}

// NewLogger creates a new logger with the given prefix writing to stderr.
func NewLogger(prefix string) *Logger {
	return NewLoggerWithOutput(prefix, os.Stderr)
}

// NewLoggerWithOutput creates a new logger with the given prefix and writer.
func NewLoggerWithOutput(prefix string, w io.Writer) *Logger {
	base := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.StampMicro,
		ReportCaller:    os.Getenv("LOG_LONGFILE") != "",
		CallerOffset:    2,
		Level:           log.DebugLevel,
	})

	return &Logger{
		prefix: prefix,
		core: &core{
			level: LevelInfo, // Default to INFO level
			base:  base,
		},
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// Level returns the current logging level.
func (l *Logger) Level() LogLevel {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()
	return l.core.level
}

// SetOutput redirects every logger sharing this logger's core.
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.base.SetOutput(w)
}

// shouldLog determines if a message at the given level should be logged
func (l *Logger) shouldLog(level LogLevel) bool {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()
	return level <= l.core.level
}

// log performs the actual logging
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	l.core.mu.RLock()
	base := l.core.base
	l.core.mu.RUnlock()

	if l.prefix != "" {
		base = base.WithPrefix(l.prefix)
	}
	base.Logf(charmLevels[level], format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(LevelTrace, "trace: "+format, args...)
}

// WithPrefix creates a new logger with an additional prefix. The new logger
// shares level and output with its parent.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		core:   l.core,
	}
}
