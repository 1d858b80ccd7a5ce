package logx

import (
	"os"
	"strings"
	"time"
)

// Format selects the output encoding.
type Format string

const (
	// FormatConsole writes human-oriented, optionally colored lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Config holds the logger configuration. Zero fields fall back to the
// defaults of DefaultConfig.
type Config struct {
	// Level is the minimum level that reaches the output.
	Level Level

	// Format selects the formatter.
	Format Format

	// EnableColors turns ANSI colors on for the console format.
	EnableColors bool

	// EnableCaller appends file:line of the call site.
	EnableCaller bool

	// EnableTimestamp prefixes every line with the time.
	EnableTimestamp bool

	// TimeFormat is a time layout string, or "unix"/"unixmilli" for
	// epoch output.
	TimeFormat string

	// Output is the destination, os.Stdout when nil.
	Output *os.File
}

// DefaultConfig returns the configuration used when nothing overrides
// it: colored console output at info level with RFC3339 timestamps.
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		EnableColors:    true,
		EnableCaller:    false,
		EnableTimestamp: true,
		TimeFormat:      time.RFC3339,
		Output:          os.Stdout,
	}
}

// LoadFromEnv builds a config from the LOG_* environment variables:
// LOG_LEVEL, LOG_FORMAT (console|json), LOG_COLOR, LOG_CALLER and
// LOG_TIME_FORMAT. Unset variables keep their defaults.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		switch strings.ToLower(format) {
		case "json":
			config.Format = FormatJSON
		case "console":
			config.Format = FormatConsole
		}
	}

	if color := os.Getenv("LOG_COLOR"); color != "" {
		config.EnableColors = strings.ToLower(color) == "true" || color == "1"
	}

	if caller := os.Getenv("LOG_CALLER"); caller != "" {
		config.EnableCaller = strings.ToLower(caller) == "true" || caller == "1"
	}

	if timeFormat := os.Getenv("LOG_TIME_FORMAT"); timeFormat != "" {
		switch strings.ToUpper(timeFormat) {
		case "RFC3339":
			config.TimeFormat = time.RFC3339
		case "RFC3339NANO":
			config.TimeFormat = time.RFC3339Nano
		case "RFC822":
			config.TimeFormat = time.RFC822
		case "UNIX":
			config.TimeFormat = "unix"
		case "UNIXMILLI":
			config.TimeFormat = "unixmilli"
		default:
			config.TimeFormat = timeFormat
		}
	}

	return config
}
