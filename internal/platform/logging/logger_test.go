package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return FromZap(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLogger_FieldConversion(t *testing.T) {
	t.Parallel()

	logger, logs := newObserved(LevelDebug)
	logger.Info("price updated",
		"player_id", "pl-zekken",
		"price", decimal.RequireFromString("11.25"),
		"took", 1500*time.Millisecond,
		"error", errors.New("boom"),
		"dangling",
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["player_id"] != "pl-zekken" {
		t.Fatalf("unexpected player_id: %v", fields["player_id"])
	}
	if fields["price"] != "11.25" {
		t.Fatalf("expected decimal rendered as string, got %v (%T)", fields["price"], fields["price"])
	}
	if fields["took"] != 1500*time.Millisecond {
		t.Fatalf("unexpected duration: %v", fields["took"])
	}
	if fields["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", fields["error"])
	}
	if fields["dangling_key"] != "dangling" {
		t.Fatalf("expected dangling key marker, got %v", fields["dangling_key"])
	}
}

func TestLogger_ContextAddsTraceIDs(t *testing.T) {
	t.Parallel()

	logger, logs := newObserved(LevelInfo)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "with span")
	logger.InfoContext(context.Background(), "without span")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["trace_id"]; got != traceID.String() {
		t.Fatalf("expected trace_id %s, got %v", traceID, got)
	}
	if _, ok := entries[1].ContextMap()["trace_id"]; ok {
		t.Fatalf("did not expect trace_id without a span")
	}
}

func TestLogger_LevelFilterAndWith(t *testing.T) {
	t.Parallel()

	logger, logs := newObserved(LevelWarn)
	child := logger.With("component", "sync").Named("worker")

	child.Debug("hidden")
	child.Info("hidden")
	child.Warn("shown")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry at warn, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected level %v", entries[0].Level)
	}
	if entries[0].LoggerName != "worker" {
		t.Fatalf("unexpected logger name %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["component"] != "sync" {
		t.Fatalf("expected inherited field, got %v", entries[0].ContextMap())
	}
}

func TestLogger_NilReceiverUsesDefault(t *testing.T) {
	var logger *Logger
	logger.Info("does not panic")
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync on nil logger: %v", err)
	}
}
