package adapters

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAdapter_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := WrapZapLogger(zap.New(core))

	logger.Debug("debug", "a", 1)
	logger.Info("Successfully tracked", "count", 10)
	logger.Warn("Retryable error", "status", 500)
	logger.Error("Fatal error", "status", 401)

	if logs.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", logs.Len())
	}

	entry := logs.FilterMessage("Successfully tracked").All()[0]
	if entry.ContextMap()["count"] != int64(10) {
		t.Fatalf("expected count field, got %v", entry.ContextMap())
	}
	if got := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); got != 1 {
		t.Fatalf("expected 1 error entry, got %d", got)
	}
}

func TestNewZapLoggerAdapter(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		logger := NewZapLoggerAdapter(LogLevelWarn, LogFormatJSON)
		logger.Debug("hidden")
	})

	t.Run("none level is silent", func(t *testing.T) {
		logger := NewZapLoggerAdapter(LogLevelNone, LogFormatText)
		logger.Error("hidden")
	})
}

func TestParseLogFormat(t *testing.T) {
	if f, err := ParseLogFormat("json"); err != nil || f != LogFormatJSON {
		t.Fatalf("expected json, got %s (%v)", f, err)
	}
	if f, err := ParseLogFormat("console"); err != nil || f != LogFormatText {
		t.Fatalf("expected text, got %s (%v)", f, err)
	}
	if _, err := ParseLogFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
