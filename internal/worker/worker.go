// Package worker provides async alert fan-out after a completed pipeline run.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/opensource-finance/ringdetect/internal/domain"
)

// Worker subscribes to completed-run events and publishes one alert per
// account newly flagged suspicious by that run. It never reads the pipeline
// itself — only the finished domain.Result — so it cannot feed back into
// detection (SPEC_FULL.md §4 "per-account alert fan-out").
type Worker struct {
	bus domain.EventBus

	mu   sync.Mutex
	subs []domain.Subscription

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorker creates a new alert-fan-out worker.
func NewWorker(bus domain.EventBus) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{bus: bus, ctx: ctx, cancel: cancel}
}

// AlertMessage is the payload published on domain.TopicAlert for a single
// newly-suspicious account.
type AlertMessage struct {
	RunID            string   `json:"runId"`
	AccountID        string   `json:"accountId"`
	SuspicionScore   int      `json:"suspicionScore"`
	DetectedPatterns []string `json:"detectedPatterns"`
	RingIDs          []string `json:"ringIds"`
}

// Start subscribes to domain.TopicBatchAnalyzed.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicBatchAnalyzed, w.handleBatch)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.subs = append(w.subs, sub)
	w.mu.Unlock()

	slog.Info("alert worker started", "topic", domain.TopicBatchAnalyzed)
	return nil
}

// handleBatch unmarshals a completed run's result and publishes one alert
// per account with IsSuspicious set.
func (w *Worker) handleBatch(ctx context.Context, msg *domain.Message) error {
	var result domain.Result
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		slog.Error("failed to parse batch result", "message_id", msg.ID, "error", err)
		return err
	}

	for _, acct := range result.Accounts {
		if !acct.IsSuspicious {
			continue
		}

		alert := AlertMessage{
			RunID:            result.RunID,
			AccountID:        acct.AccountID,
			SuspicionScore:   acct.SuspicionScore,
			DetectedPatterns: acct.DetectedPatterns,
			RingIDs:          acct.RingIDs,
		}

		payload, err := json.Marshal(alert)
		if err != nil {
			slog.Error("failed to marshal alert", "account_id", acct.AccountID, "error", err)
			continue
		}

		if err := w.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
			slog.Error("failed to publish alert", "account_id", acct.AccountID, "error", err)
			continue
		}
	}

	slog.Info("batch processed",
		"run_id", result.RunID,
		"accounts", len(result.Accounts),
		"suspicious", result.Summary.SuspiciousAccountsFlagged,
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sub := range w.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe", "topic", sub.Topic(), "error", err)
		}
	}
	w.subs = nil

	slog.Info("alert worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subs))
	for i, sub := range w.subs {
		topics[i] = sub.Topic()
	}
	return Stats{SubscriptionCount: len(w.subs), Topics: topics}
}
