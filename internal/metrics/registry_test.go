package metrics

import (
	"context"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry("ringdetect-test")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if r.StageDuration == nil {
		t.Error("expected StageDuration instrument to be initialized")
	}
	if r.RingsDetectedTotal == nil {
		t.Error("expected RingsDetectedTotal instrument to be initialized")
	}
	if r.APIRequestDuration == nil {
		t.Error("expected APIRequestDuration instrument to be initialized")
	}
}

func TestRecordBatch(t *testing.T) {
	r, err := NewRegistry("ringdetect-test-batch")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	ctx := context.Background()
	r.RecordBatch(ctx, 100, map[string]int{"cycle": 2, "fan_in": 1}, 5, 0.25)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeRingCount != 3 {
		t.Errorf("expected active ring count 3, got %d", r.activeRingCount)
	}
}

func TestRecordStageAndAPIRequest(t *testing.T) {
	r, err := NewRegistry("ringdetect-test-stage")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	ctx := context.Background()
	r.RecordStage(ctx, "cycles", 12.5)
	r.RecordAPIRequest(ctx, 42.0, "POST", "/v1/batches", 200)
}
