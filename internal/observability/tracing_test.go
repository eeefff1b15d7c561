package observability

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServiceName != "verigraph" {
		t.Fatalf("expected service name 'verigraph', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestCheckSpan(t *testing.T) {
	ctx, span := StartCheckSpan(context.Background(), "Connection Verification")
	if ctx == nil || span == nil {
		t.Fatal("expected context and span")
	}
	EndCheckSpan(span, nil)

	_, span = StartCheckSpan(context.Background(), "Data Ingestion")
	EndCheckSpan(span, errors.New("insert failed"))
}
