package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/ringdetect/internal/bus"
	"github.com/opensource-finance/ringdetect/internal/domain"
)

func sampleResult() domain.Result {
	return domain.Result{
		RunID: "run-001",
		Accounts: []domain.AccountView{
			{
				AccountID:        "acc-001",
				SuspicionScore:   85,
				DetectedPatterns: []string{domain.PatternCycle},
				RingIDs:          []string{"RING_001"},
				IsSuspicious:     true,
			},
			{
				AccountID:      "acc-002",
				SuspicionScore: 0,
				IsSuspicious:   false,
			},
		},
		Summary: domain.Summary{
			TotalAccountsAnalyzed:     2,
			SuspiciousAccountsFlagged: 1,
		},
	}
}

func TestWorkerStartAndStop(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	w := NewWorker(eventBus)

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stats := w.GetStats()
	if stats.SubscriptionCount != 1 {
		t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	stats = w.GetStats()
	if stats.SubscriptionCount != 0 {
		t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
	}
}

func TestWorkerPublishesAlertForSuspiciousAccountsOnly(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	w := NewWorker(eventBus)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	var alertCount atomic.Int32
	var lastAlert AlertMessage

	eventBus.Subscribe(context.Background(), domain.TopicAlert, func(ctx context.Context, msg *domain.Message) error {
		var alert AlertMessage
		if err := json.Unmarshal(msg.Payload, &alert); err != nil {
			return err
		}
		lastAlert = alert
		alertCount.Add(1)
		return nil
	})

	time.Sleep(10 * time.Millisecond)

	payload, _ := json.Marshal(sampleResult())
	if err := eventBus.Publish(context.Background(), domain.TopicBatchAnalyzed, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if alertCount.Load() != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", alertCount.Load())
	}
	if lastAlert.AccountID != "acc-001" {
		t.Errorf("expected alert for acc-001, got %s", lastAlert.AccountID)
	}
	if lastAlert.SuspicionScore != 85 {
		t.Errorf("expected suspicion score 85, got %d", lastAlert.SuspicionScore)
	}
	if lastAlert.RunID != "run-001" {
		t.Errorf("expected runId run-001, got %s", lastAlert.RunID)
	}
}

func TestWorkerNoAlertsWhenNoneSuspicious(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	w := NewWorker(eventBus)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	var alertCount atomic.Int32
	eventBus.Subscribe(context.Background(), domain.TopicAlert, func(ctx context.Context, msg *domain.Message) error {
		alertCount.Add(1)
		return nil
	})

	time.Sleep(10 * time.Millisecond)

	result := domain.Result{
		RunID: "run-002",
		Accounts: []domain.AccountView{
			{AccountID: "acc-003", IsSuspicious: false},
		},
	}
	payload, _ := json.Marshal(result)
	eventBus.Publish(context.Background(), domain.TopicBatchAnalyzed, payload)

	time.Sleep(50 * time.Millisecond)

	if alertCount.Load() != 0 {
		t.Errorf("expected 0 alerts, got %d", alertCount.Load())
	}
}
