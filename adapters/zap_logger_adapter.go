package adapters

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// ParseLogFormat converts a string to a LogFormat
func ParseLogFormat(format string) (LogFormat, error) {
	switch format {
	case "json":
		return LogFormatJSON, nil
	case "text", "console", "":
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("invalid log format: %s", format)
	}
}

// ZapLoggerAdapter is a LoggerAdapter backed by uber-go/zap.
type ZapLoggerAdapter struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

var _ LoggerAdapter = (*ZapLoggerAdapter)(nil)

// NewZapLoggerAdapter builds a zap logger writing to stderr at the given level.
// LogLevelNone yields a logger that discards everything.
func NewZapLoggerAdapter(level LogLevel, format LogFormat) *ZapLoggerAdapter {
	if level == LogLevelNone {
		return WrapZapLogger(zap.NewNop())
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == LogFormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapLevel(level))
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named("catalyst")
	return WrapZapLogger(logger)
}

// WrapZapLogger adapts an existing *zap.Logger.
func WrapZapLogger(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{
		logger: logger,
		sugar:  logger.Sugar(),
	}
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *ZapLoggerAdapter) Debug(message string, keysAndValues ...any) {
	z.sugar.Debugw(message, keysAndValues...)
}

func (z *ZapLoggerAdapter) Info(message string, keysAndValues ...any) {
	z.sugar.Infow(message, keysAndValues...)
}

func (z *ZapLoggerAdapter) Warn(message string, keysAndValues ...any) {
	z.sugar.Warnw(message, keysAndValues...)
}

func (z *ZapLoggerAdapter) Error(message string, keysAndValues ...any) {
	z.sugar.Errorw(message, keysAndValues...)
}

// Sync flushes buffered entries.
func (z *ZapLoggerAdapter) Sync() error {
	return z.logger.Sync()
}
