package logx

import "strings"

// Level orders log severities. A logger emits a record when its
// configured level is at or below the record's level.
type Level uint8

const (
	// LevelTrace is for per-element noise, e.g. one line per stream pull.
	LevelTrace Level = iota
	// LevelDebug is for development diagnostics.
	LevelDebug
	// LevelInfo is for lifecycle events worth keeping in production.
	LevelInfo
	// LevelWarn is for degraded-but-working conditions.
	LevelWarn
	// LevelError is for failed operations.
	LevelError
	// LevelFatal logs and then exits the process.
	LevelFatal
	// LevelOff silences the logger entirely.
	LevelOff
)

// String returns the level name in upper case.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
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
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel reads a level name case-insensitively. Unknown names fall
// back to info rather than failing, so a misspelled LOG_LEVEL never
// silences a process.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Enabled reports whether a record at target passes this configured
// level.
func (l Level) Enabled(target Level) bool {
	return l <= target
}
