package adapters

import (
	"fmt"
	"strings"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelNone  LogLevel = "none"
)

// LoggerAdapter is an interface for logging.
// Implement this interface to use custom loggers.
//
// Every method takes a message followed by alternating key-value pairs.
type LoggerAdapter interface {
	// Debug logs a debug message
	Debug(message string, keysAndValues ...any)
	// Info logs an info message
	Info(message string, keysAndValues ...any)
	// Warn logs a warning message
	Warn(message string, keysAndValues ...any)
	// Error logs an error message
	Error(message string, keysAndValues ...any)
}

// ParseLogLevel converts a string to a LogLevel
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off":
		return LogLevelNone, nil
	default:
		return "", fmt.Errorf("invalid log level: %s", level)
	}
}

func levelRank(level LogLevel) int {
	switch level {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	default:
		return 4
	}
}
