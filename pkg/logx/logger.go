package logx

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Logger formats and writes log records. Safe for concurrent use; the
// mutex serializes writes so interleaved goroutines never shear lines.
type Logger struct {
	config    *Config
	formatter Formatter
	mu        sync.Mutex
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger builds a logger from a config. A nil config means
// DefaultConfig.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var formatter Formatter
	switch config.Format {
	case FormatJSON:
		formatter = NewJSONFormatter(config)
	default:
		formatter = NewConsoleFormatter(config)
	}

	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}

	return &Logger{
		config:    config,
		formatter: formatter,
		writer:    writer,
		exitFunc:  os.Exit,
	}
}

// SetLevel adjusts the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// GetLevel returns the current minimum level.
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.Level
}

// SetOutput redirects where records are written.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// log assembles a record, formats it and writes it. Formatting and
// write failures are reported on stderr instead of being swallowed,
// since a logger that fails silently is worse than one that is noisy.
func (l *Logger) log(level Level, msg string, fields Fields, data any, err error) {
	if !l.config.Level.Enabled(level) {
		return
	}

	record := &LogEntry{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Data:      data,
		Error:     err,
		Timestamp: time.Now(),
	}
	if l.config.EnableCaller {
		record.Caller = getCaller(3)
	}

	formatted, ferr := l.formatter.Format(record)
	if ferr != nil {
		fmt.Fprintf(os.Stderr, "logx: cannot format record: %v\n", ferr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, werr := l.writer.Write(formatted); werr != nil {
		fmt.Fprintf(os.Stderr, "logx: cannot write record: %v\n", werr)
	}
}

// WithField starts an entry on this logger carrying one field.
func (l *Logger) WithField(key string, value any) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields starts an entry on this logger carrying the given fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError starts an entry on this logger carrying an error.
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// WithStruct starts an entry on this logger carrying a structured
// payload.
func (l *Logger) WithStruct(data any) *Entry {
	return newEntry(l).WithStruct(data)
}

// exit is os.Exit behind an indirection so tests can intercept Fatal.
func (l *Logger) exit(code int) {
	l.exitFunc(code)
}

// getCaller resolves the file:line of the logging call site.
func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???"
	}
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}
