package services_test

import (
	"context"
	"testing"

	"mediaflow/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithJobSeq(ctx, 3)
	ctx = services.WithCapability(ctx, "MetadataAnalyst")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if seq, ok := services.JobSeqFromContext(ctx); !ok || seq != 3 {
		t.Fatalf("unexpected job seq: %v %v", seq, ok)
	}
	if name, ok := services.CapabilityFromContext(ctx); !ok || name != "MetadataAnalyst" {
		t.Fatalf("unexpected capability: %v %v", name, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCapability(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.CapabilityFromContext(ctx); ok {
		t.Fatal("expected no capability value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
