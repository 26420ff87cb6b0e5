package adapters

import (
	"fmt"
	"log"
	"strings"
)

// PrintLoggerAdapter implements LoggerAdapter using standard log package
type PrintLoggerAdapter struct {
	level  LogLevel
	logger *log.Logger
}

// NewPrintLoggerAdapter creates a new print logger with the specified level
func NewPrintLoggerAdapter(level LogLevel) *PrintLoggerAdapter {
	return &PrintLoggerAdapter{level: level, logger: log.Default()}
}

// NewPrintLoggerAdapterWithLogger writes through the given *log.Logger.
func NewPrintLoggerAdapterWithLogger(level LogLevel, logger *log.Logger) *PrintLoggerAdapter {
	return &PrintLoggerAdapter{level: level, logger: logger}
}

func (p *PrintLoggerAdapter) shouldLog(level LogLevel) bool {
	if p.level == LogLevelNone {
		return false
	}
	return levelRank(level) >= levelRank(p.level)
}

func (p *PrintLoggerAdapter) print(tag string, message string, keysAndValues []any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(tag)
	b.WriteString("] [CustomerCatalyst] ")
	b.WriteString(message)
	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v", keysAndValues[i])
		}
	}
	p.logger.Print(b.String())
}

func (p *PrintLoggerAdapter) Debug(message string, keysAndValues ...any) {
	if p.shouldLog(LogLevelDebug) {
		p.print("DEBUG", message, keysAndValues)
	}
}

func (p *PrintLoggerAdapter) Info(message string, keysAndValues ...any) {
	if p.shouldLog(LogLevelInfo) {
		p.print("INFO", message, keysAndValues)
	}
}

func (p *PrintLoggerAdapter) Warn(message string, keysAndValues ...any) {
	if p.shouldLog(LogLevelWarn) {
		p.print("WARN", message, keysAndValues)
	}
}

func (p *PrintLoggerAdapter) Error(message string, keysAndValues ...any) {
	if p.shouldLog(LogLevelError) {
		p.print("ERROR", message, keysAndValues)
	}
}
