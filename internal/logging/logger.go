package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the engine log file inside the log directory.
const LogFileName = "debug.log"

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	closer io.Closer
	mu     *sync.Mutex // Protects closer; shared with child loggers
	attrs  []slog.Attr // Persistent attributes (run, task)
}

// NewLogger creates a new Logger that writes JSON-formatted logs to
// {dir}/debug.log. If dir is empty, logs are written to stderr.
//
// The level parameter controls which messages are logged:
//   - DEBUG: All messages
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriterLogger(file, level)
	l.closer = file
	return l, nil
}

// NewLoggerWithRotation is like NewLogger but rotates {dir}/debug.log
// according to cfg. An empty dir falls back to stderr without rotation.
func NewLoggerWithRotation(dir string, level string, cfg RotationConfig) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), cfg)
	if err != nil {
		return nil, err
	}

	l := NewWriterLogger(rw, level)
	l.closer = rw
	return l, nil
}

// NewWriterLogger creates a Logger writing JSON records to w. The caller owns w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: SlogLevel(level)})
	return &Logger{
		logger: slog.New(handler),
		mu:     &sync.Mutex{},
		attrs:  make([]slog.Attr, 0),
	}
}

var slogLevels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// SlogLevel returns the slog.Level for a level string, defaulting to INFO.
func SlogLevel(level string) slog.Level {
	if l, ok := slogLevels[strings.ToUpper(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// WithRun returns a new Logger with the run title added to all log entries.
func (l *Logger) WithRun(title string) *Logger {
	return l.withAttr(slog.String("run", title))
}

// WithTask returns a new Logger with the task name added to all log entries.
func (l *Logger) WithTask(name string) *Logger {
	return l.withAttr(slog.String("task", name))
}

// With returns a new Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{
		logger: l.logger,
		closer: l.closer,
		mu:     l.mu,
		attrs:  newAttrs,
	}
}

// WithRecorder returns a Logger that additionally records every entry into
// rb under the given logger name. The original destination keeps receiving
// all entries. Used to show the engine's own log next to task logs.
func (l *Logger) WithRecorder(rb *RecordBuffer, name string) *Logger {
	recorder := NewRecordHandler(rb, name, HandlerOptions{Level: slog.LevelDebug})
	return &Logger{
		logger: slog.New(fanoutHandler{l.logger.Handler(), recorder}),
		closer: l.closer,
		mu:     l.mu,
		attrs:  append([]slog.Attr(nil), l.attrs...),
	}
}

// withAttr creates a new Logger with an additional attribute.
func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr

	return &Logger{
		logger: l.logger,
		closer: l.closer,
		mu:     l.mu,
		attrs:  newAttrs,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log combines persistent attributes with per-call arguments.
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close closes the underlying log file, if any.
// Loggers writing to stderr or a caller-owned writer treat this as a no-op.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.closer = nil
	}
	return nil
}

// NopLogger returns a Logger that discards all log output.
// Useful for testing or when logging is disabled.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

// ParseLevel normalizes level to one of the Level constants, or LevelInfo
// when it names none of them.
func ParseLevel(level string) string {
	up := strings.ToUpper(level)
	if _, ok := slogLevels[up]; ok {
		return up
	}
	return LevelInfo
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
