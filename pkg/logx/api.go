// Package logx is the repository's structured logger: levelled output,
// chainable field entries, console and JSON formatters, configured from
// the environment. Library packages log sparingly at debug level with a
// package prefix ("dedupx: ..."); binaries own the info banners.
package logx

import (
	"context"
	"fmt"
	"os"
)

// defaultLogger backs the package-level functions. Configured from the
// environment at init; replace it with SetDefaultLogger in tests or
// binaries that build their own config.
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(LoadFromEnv())
}

// SetDefaultLogger replaces the logger behind the package-level
// functions.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the logger behind the package-level
// functions.
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel adjusts the default logger's minimum level.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput redirects the default logger's output.
func SetOutput(w *os.File) {
	defaultLogger.SetOutput(w)
}

// ============================================================================
// Leveled logging
// ============================================================================

// Trace logs at trace level.
func Trace(msg string) {
	defaultLogger.log(LevelTrace, msg, nil, nil, nil)
}

// Debug logs at debug level.
func Debug(msg string) {
	defaultLogger.log(LevelDebug, msg, nil, nil, nil)
}

// Info logs at info level.
func Info(msg string) {
	defaultLogger.log(LevelInfo, msg, nil, nil, nil)
}

// Warn logs at warn level.
func Warn(msg string) {
	defaultLogger.log(LevelWarn, msg, nil, nil, nil)
}

// Error logs at error level.
func Error(msg string) {
	defaultLogger.log(LevelError, msg, nil, nil, nil)
}

// Fatal logs at fatal level and exits the process.
func Fatal(msg string) {
	defaultLogger.log(LevelFatal, msg, nil, nil, nil)
	defaultLogger.exit(1)
}

// Tracef logs a formatted message at trace level.
func Tracef(format string, args ...any) {
	defaultLogger.log(LevelTrace, fmt.Sprintf(format, args...), nil, nil, nil)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) {
	defaultLogger.log(LevelDebug, fmt.Sprintf(format, args...), nil, nil, nil)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil, nil)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) {
	defaultLogger.log(LevelWarn, fmt.Sprintf(format, args...), nil, nil, nil)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil, nil, nil)
}

// Fatalf logs a formatted message at fatal level and exits the process.
func Fatalf(format string, args ...any) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil, nil)
	defaultLogger.exit(1)
}

// ============================================================================
// Structured logging
// ============================================================================

// WithFields starts an entry carrying the given fields.
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithField starts an entry carrying one field.
func WithField(key string, value any) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithContext starts an entry bound to a context.
func WithContext(ctx context.Context) *Entry {
	return newEntry(defaultLogger).WithContext(ctx)
}

// WithError starts an entry carrying an error.
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}

// WithStruct starts an entry carrying a structured payload, rendered
// by the formatter.
func WithStruct(data any) *Entry {
	return defaultLogger.WithStruct(data)
}

// ============================================================================
// Panics
// ============================================================================

// Panic logs at error level and panics with the message.
func Panic(msg string) {
	defaultLogger.log(LevelError, msg, nil, nil, nil)
	panic(msg)
}

// Panicf logs a formatted message at error level and panics with it.
func Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	defaultLogger.log(LevelError, msg, nil, nil, nil)
	panic(msg)
}
