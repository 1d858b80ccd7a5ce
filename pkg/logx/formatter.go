package logx

import (
	"encoding/json"
	"fmt"
	"time"
)

// Formatter renders a record into the bytes written to the output,
// including the trailing newline.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry is one fully-assembled record handed to the formatter.
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Data      any
	Error     error
	Timestamp time.Time
	Caller    string
}

// Fields is the structured key/value part of a record.
type Fields map[string]any

// formatTimestamp renders a timestamp using a layout string or the
// "unix"/"unixmilli" epoch shorthands.
func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return fmt.Sprintf("%d", t.Unix())
	case "unixmilli":
		return fmt.Sprintf("%d", t.UnixMilli())
	default:
		return t.Format(format)
	}
}

// prettyJSON renders a payload indented for console output; on marshal
// failure it falls back to the %+v rendering rather than dropping the
// payload.
func prettyJSON(data any) string {
	if data == nil {
		return ""
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", data)
	}
	return string(b)
}
