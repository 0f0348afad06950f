// Package logging provides simple leveled logging for the uringrt runtime.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger wraps stdlib log with level support and a small set of contextual fields.
type Logger struct {
	logger *log.Logger
	level  LogLevel
	format string
	fields []any
	mu     *sync.Mutex
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Format string // "text" (default) or "json"
	Output io.Writer
}

// ParseLevel parses a level name ("debug", "info", "warn", "error"),
// defaulting to LevelInfo for anything else.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a new logger.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	format := config.Format
	if format == "" {
		format = "text"
	}
	return &Logger{
		logger: log.New(output, "", log.LstdFlags),
		level:  config.Level,
		format: format,
		mu:     &sync.Mutex{},
	}
}

// Default returns the default logger, creating it if necessary.
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
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// With returns a derived logger carrying the given key/value pair in addition
// to every field already attached to the receiver.
func (l *Logger) With(key string, value any) *Logger {
	fields := make([]any, len(l.fields), len(l.fields)+2)
	copy(fields, l.fields)
	fields = append(fields, key, value)
	return &Logger{logger: l.logger, level: l.level, format: l.format, fields: fields, mu: l.mu}
}

// WithTask returns a derived logger tagged with the given task id.
func (l *Logger) WithTask(taskID uint64) *Logger {
	return l.With("task_id", taskID)
}

// WithOp returns a derived logger tagged with the given operation name.
func (l *Logger) WithOp(op string) *Logger {
	return l.With("op", op)
}

// WithError returns a derived logger tagged with the given error.
func (l *Logger) WithError(err error) *Logger {
	return l.With("error", err)
}

// formatArgs converts key-value pairs to a "key=value key=value" string.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var result string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if result != "" {
				result += " "
			}
			result += fmt.Sprintf("%v=%v", args[i], args[i+1])
		}
	}
	if result != "" {
		return " " + result
	}
	return ""
}

func jsonArgs(args []any) string {
	var result string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			result += fmt.Sprintf(",%q:%q", fmt.Sprint(args[i]), fmt.Sprint(args[i+1]))
		}
	}
	return result
}

func (l *Logger) log(level LogLevel, prefix, msg string, args ...any) {
	if level < l.level {
		return
	}
	all := append(append([]any{}, l.fields...), args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == "json" {
		l.logger.Printf(`{"level":%q,"msg":%q%s}`, prefix, msg, jsonArgs(all))
		return
	}
	l.logger.Printf("[%s] %s%s", prefix, msg, formatArgs(all))
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, "DEBUG", msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, "INFO", msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, "WARN", msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, "ERROR", msg, args...) }

// Printf-style logging.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(LevelDebug, "DEBUG", fmt.Sprintf(format, args...))
}
func (l *Logger) Infof(format string, args ...any) {
	l.log(LevelInfo, "INFO", fmt.Sprintf(format, args...))
}
func (l *Logger) Warnf(format string, args ...any) {
	l.log(LevelWarn, "WARN", fmt.Sprintf(format, args...))
}
func (l *Logger) Errorf(format string, args ...any) {
	l.log(LevelError, "ERROR", fmt.Sprintf(format, args...))
}

// Printf is an alias for Infof, kept for call sites that want a drop-in
// replacement for the standard library's *log.Logger.Printf.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions, delegating to the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
