package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInit_InstallsDefault(t *testing.T) {
	l := Init("test-service", slog.LevelInfo)
	if l == nil {
		t.Fatal("Init returned nil")
	}
	if slog.Default() != l {
		t.Error("Init did not install the returned logger as slog default")
	}
}

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if tid := TraceID(ctx); tid != "" {
		t.Errorf("TraceID on bare context = %q, want empty", tid)
	}

	ctx = WithTraceID(ctx, "test-trace-123")
	if tid := TraceID(ctx); tid != "test-trace-123" {
		t.Errorf("TraceID = %q, want test-trace-123", tid)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Date(2025, 6, 2, 14, 30, 0, 123456789, time.UTC)
	tid := GenerateTraceID("SPY", ts)

	if !strings.HasPrefix(tid, "SPY-") {
		t.Errorf("trace id = %q, want SPY- prefix", tid)
	}
	if !strings.Contains(tid, "123456789") {
		t.Errorf("trace id = %q, want nanosecond component", tid)
	}
}

func TestLogWithTrace(t *testing.T) {
	if attrs := LogWithTrace(context.Background()); attrs != nil {
		t.Errorf("LogWithTrace without trace id = %v, want nil", attrs)
	}

	ctx := WithTraceID(context.Background(), "abc-123")
	attrs := LogWithTrace(ctx)
	if len(attrs) != 1 {
		t.Fatalf("LogWithTrace returned %d attrs, want 1", len(attrs))
	}
}
