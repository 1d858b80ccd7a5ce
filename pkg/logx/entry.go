package logx

import (
	"context"
	"fmt"
)

// Entry accumulates the structured parts of one record before it is
// emitted. Entries chain: With* calls return the entry itself, and one
// of the level methods finishes it.
type Entry struct {
	logger *Logger
	fields Fields
	data   any
	err    error
	ctx    context.Context
}

func newEntry(logger *Logger) *Entry {
	return &Entry{
		logger: logger,
		fields: make(Fields),
	}
}

// WithField adds one field.
func (e *Entry) WithField(key string, value any) *Entry {
	e.fields[key] = value
	return e
}

// WithFields adds several fields.
func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithError records the error and mirrors it into the "error" field.
func (e *Entry) WithError(err error) *Entry {
	e.err = err
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

// WithContext binds the entry to a context.
func (e *Entry) WithContext(ctx context.Context) *Entry {
	e.ctx = ctx
	return e
}

// WithStruct attaches a payload the formatter renders in full, e.g. a
// response body under inspection.
func (e *Entry) WithStruct(data any) *Entry {
	e.data = data
	return e
}

// Trace emits the entry at trace level.
func (e *Entry) Trace(msg string) {
	e.logger.log(LevelTrace, msg, e.fields, e.data, e.err)
}

// Debug emits the entry at debug level.
func (e *Entry) Debug(msg string) {
	e.logger.log(LevelDebug, msg, e.fields, e.data, e.err)
}

// Info emits the entry at info level.
func (e *Entry) Info(msg string) {
	e.logger.log(LevelInfo, msg, e.fields, e.data, e.err)
}

// Warn emits the entry at warn level.
func (e *Entry) Warn(msg string) {
	e.logger.log(LevelWarn, msg, e.fields, e.data, e.err)
}

// Error emits the entry at error level.
func (e *Entry) Error(msg string) {
	e.logger.log(LevelError, msg, e.fields, e.data, e.err)
}

// Fatal emits the entry at fatal level and exits the process.
func (e *Entry) Fatal(msg string) {
	e.logger.log(LevelFatal, msg, e.fields, e.data, e.err)
	e.logger.exit(1)
}

// Tracef emits the entry at trace level with a formatted message.
func (e *Entry) Tracef(format string, args ...any) {
	e.logger.log(LevelTrace, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
}

// Debugf emits the entry at debug level with a formatted message.
func (e *Entry) Debugf(format string, args ...any) {
	e.logger.log(LevelDebug, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
}

// Infof emits the entry at info level with a formatted message.
func (e *Entry) Infof(format string, args ...any) {
	e.logger.log(LevelInfo, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
}

// Warnf emits the entry at warn level with a formatted message.
func (e *Entry) Warnf(format string, args ...any) {
	e.logger.log(LevelWarn, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
}

// Errorf emits the entry at error level with a formatted message.
func (e *Entry) Errorf(format string, args ...any) {
	e.logger.log(LevelError, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
}

// Fatalf emits the entry at fatal level with a formatted message and
// exits the process.
func (e *Entry) Fatalf(format string, args ...any) {
	e.logger.log(LevelFatal, fmt.Sprintf(format, args...), e.fields, e.data, e.err)
	e.logger.exit(1)
}
