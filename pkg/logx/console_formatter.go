package logx

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorWhite  = "\033[97m"

	colorBoldRed    = "\033[1;31m"
	colorBoldYellow = "\033[1;33m"
	colorBoldCyan   = "\033[1;36m"
	colorBoldGreen  = "\033[1;32m"
)

// ConsoleFormatter renders records as single human-readable lines:
// timestamp, bracketed level, message, then key=value fields. Errors
// and structured payloads get continuation lines.
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a console formatter.
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

// Format renders one record.
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.config.EnableTimestamp {
		f.colored(&b, colorGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
		b.WriteString(" ")
	}

	b.WriteString(f.formatLevel(entry.Level))
	b.WriteString(" ")

	if f.config.EnableCaller && entry.Caller != "" {
		f.colored(&b, colorGray, "["+entry.Caller+"]")
		b.WriteString(" ")
	}

	f.colored(&b, colorWhite, entry.Message)

	if len(entry.Fields) > 0 {
		b.WriteString(" ")
		if f.config.EnableColors {
			b.WriteString(colorCyan)
		}
		i := 0
		for k, v := range entry.Fields {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, v)
			i++
		}
		if f.config.EnableColors {
			b.WriteString(colorReset)
		}
	}

	if entry.Error != nil {
		b.WriteString("\n")
		if f.config.EnableColors {
			b.WriteString(colorRed)
			b.WriteString("  ╰─→ error: ")
			b.WriteString(entry.Error.Error())
			b.WriteString(colorReset)
		} else {
			b.WriteString("  error: ")
			b.WriteString(entry.Error.Error())
		}
	}

	if entry.Data != nil {
		b.WriteString("\n")
		if f.config.EnableColors {
			b.WriteString(colorGray)
		}
		for _, line := range strings.Split(prettyJSON(entry.Data), "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		if f.config.EnableColors {
			b.WriteString(colorReset)
		}
	} else {
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

// colored writes s wrapped in a color when colors are enabled.
func (f *ConsoleFormatter) colored(b *strings.Builder, color, s string) {
	if f.config.EnableColors {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(colorReset)
		return
	}
	b.WriteString(s)
}

// formatLevel renders the bracketed, padded level tag.
func (f *ConsoleFormatter) formatLevel(level Level) string {
	if !f.config.EnableColors {
		return fmt.Sprintf("[%s]", level.String())
	}

	switch level {
	case LevelTrace:
		return colorGray + "[TRACE]" + colorReset
	case LevelDebug:
		return colorBoldCyan + "[DEBUG]" + colorReset
	case LevelInfo:
		return colorBoldGreen + "[INFO ]" + colorReset
	case LevelWarn:
		return colorBoldYellow + "[WARN ]" + colorReset
	case LevelError:
		return colorBoldRed + "[ERROR]" + colorReset
	case LevelFatal:
		return colorBoldRed + "[FATAL]" + colorReset
	default:
		return fmt.Sprintf("[%s]", level.String())
	}
}
