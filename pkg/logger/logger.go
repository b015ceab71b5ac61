// Package logger provides the leveled, colored logger used throughout the
// exercise runner. A single default logger backs the package-level helpers;
// components that want a prefix or structured fields derive a child logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Logger is the logging interface handed to the orchestration components.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithPrefix(prefix string) Logger
}

type logger struct {
	mu       sync.Mutex
	level    Level
	writer   io.Writer
	fields   map[string]interface{}
	prefix   string
	noColor  bool
	showTime bool
}

// Config holds logger configuration.
type Config struct {
	Level    Level
	Writer   io.Writer
	NoColor  bool
	ShowTime bool
}

var defaultLogger = New()

// New creates a logger with the default configuration.
func New() Logger {
	return NewWithConfig(Config{
		Level:    InfoLevel,
		Writer:   os.Stdout,
		ShowTime: true,
	})
}

// NewWithConfig creates a logger with a custom configuration.
func NewWithConfig(cfg Config) Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	return &logger{
		level:    cfg.Level,
		writer:   w,
		fields:   make(map[string]interface{}),
		noColor:  cfg.NoColor,
		showTime: cfg.ShowTime,
	}
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		l.level = level
		l.mu.Unlock()
	}
}

// SetNoColor disables colored output on the default logger.
func SetNoColor(noColor bool) {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		l.noColor = noColor
		l.mu.Unlock()
	}
}

// ParseLevel parses a level name; unknown names fall back to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Package-level helpers on the default logger.
func Debug(args ...interface{})                      { defaultLogger.Debug(args...) }
func Debugf(format string, args ...interface{})      { defaultLogger.Debugf(format, args...) }
func Info(args ...interface{})                       { defaultLogger.Info(args...) }
func Infof(format string, args ...interface{})       { defaultLogger.Infof(format, args...) }
func Warn(args ...interface{})                       { defaultLogger.Warn(args...) }
func Warnf(format string, args ...interface{})       { defaultLogger.Warnf(format, args...) }
func Error(args ...interface{})                      { defaultLogger.Error(args...) }
func Errorf(format string, args ...interface{})      { defaultLogger.Errorf(format, args...) }
func Fatal(args ...interface{})                      { defaultLogger.Fatal(args...) }
func Fatalf(format string, args ...interface{})      { defaultLogger.Fatalf(format, args...) }
func WithField(key string, value interface{}) Logger { return defaultLogger.WithField(key, value) }
func WithPrefix(prefix string) Logger                { return defaultLogger.WithPrefix(prefix) }

func (l *logger) log(level Level, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()

	var parts []string

	if l.showTime {
		timestamp := time.Now().Format("15:04:05")
		parts = append(parts, l.paint(colorGray, timestamp))
	}

	levelStr, levelColor := levelString(level)
	parts = append(parts, l.paint(levelColor, levelStr))

	if l.prefix != "" {
		parts = append(parts, l.paint(colorCyan, "["+l.prefix+"]"))
	}

	if len(l.fields) > 0 {
		var fieldParts []string
		for k, v := range l.fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, l.paint(colorGray, strings.Join(fieldParts, " ")))
	}

	parts = append(parts, fmt.Sprint(args...))

	_, _ = fmt.Fprintln(l.writer, strings.Join(parts, " "))

	l.mu.Unlock()

	if level == FatalLevel {
		os.Exit(1)
	}
}

func (l *logger) logf(level Level, format string, args ...interface{}) {
	l.log(level, fmt.Sprintf(format, args...))
}

func (l *logger) paint(color, s string) string {
	if l.noColor {
		return s
	}
	return color + s + colorReset
}

func levelString(level Level) (string, string) {
	switch level {
	case DebugLevel:
		return "DEBUG", colorGray
	case InfoLevel:
		return "INFO ", colorGreen
	case WarnLevel:
		return "WARN ", colorYellow
	case ErrorLevel:
		return "ERROR", colorRed
	case FatalLevel:
		return "FATAL", colorRed + colorBold
	default:
		return "UNKNOWN", colorReset
	}
}

func (l *logger) child() *logger {
	n := &logger{
		level:    l.level,
		writer:   l.writer,
		fields:   make(map[string]interface{}, len(l.fields)),
		prefix:   l.prefix,
		noColor:  l.noColor,
		showTime: l.showTime,
	}
	for k, v := range l.fields {
		n.fields[k] = v
	}
	return n
}

func (l *logger) Debug(args ...interface{})                 { l.log(DebugLevel, args...) }
func (l *logger) Debugf(format string, args ...interface{}) { l.logf(DebugLevel, format, args...) }
func (l *logger) Info(args ...interface{})                  { l.log(InfoLevel, args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.logf(InfoLevel, format, args...) }
func (l *logger) Warn(args ...interface{})                  { l.log(WarnLevel, args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.logf(WarnLevel, format, args...) }
func (l *logger) Error(args ...interface{})                 { l.log(ErrorLevel, args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.logf(ErrorLevel, format, args...) }
func (l *logger) Fatal(args ...interface{})                 { l.log(FatalLevel, args...) }
func (l *logger) Fatalf(format string, args ...interface{}) { l.logf(FatalLevel, format, args...) }

func (l *logger) WithField(key string, value interface{}) Logger {
	n := l.child()
	n.fields[key] = value
	return n
}

func (l *logger) WithPrefix(prefix string) Logger {
	n := l.child()
	n.prefix = prefix
	return n
}
