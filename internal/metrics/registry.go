// Package metrics exposes the OpenTelemetry instruments that observe the
// detection pipeline and the HTTP surface around it: stage durations, rings
// detected, and ordinary API request metrics.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the instruments used across the pipeline and API.
type Registry struct {
	meter metric.Meter

	// Pipeline metrics
	StageDuration       metric.Float64Histogram
	BatchDuration       metric.Float64Histogram
	TransactionsCounter metric.Int64Counter
	RingsDetectedTotal  metric.Int64Counter
	SuspiciousAccounts  metric.Int64Counter
	ActiveRingsGauge    metric.Int64ObservableGauge

	// API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCounter  metric.Int64Counter

	mu              sync.RWMutex
	activeRingCount int64
}

// NewRegistry builds a Registry on the named meter.
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{meter: meter}

	if err := r.initPipelineMetrics(); err != nil {
		return nil, err
	}
	if err := r.initAPIMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initPipelineMetrics() error {
	var err error

	r.StageDuration, err = r.meter.Float64Histogram(
		"ringdetect.pipeline.stage_duration",
		metric.WithDescription("Duration of an individual pipeline stage"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.BatchDuration, err = r.meter.Float64Histogram(
		"ringdetect.pipeline.batch_duration",
		metric.WithDescription("Total duration of a full batch analysis"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	r.TransactionsCounter, err = r.meter.Int64Counter(
		"ringdetect.pipeline.transactions_total",
		metric.WithDescription("Total number of transactions analyzed"),
	)
	if err != nil {
		return err
	}

	r.RingsDetectedTotal, err = r.meter.Int64Counter(
		"ringdetect.pipeline.rings_detected_total",
		metric.WithDescription("Total number of fraud rings detected, by pattern type"),
	)
	if err != nil {
		return err
	}

	r.SuspiciousAccounts, err = r.meter.Int64Counter(
		"ringdetect.pipeline.suspicious_accounts_total",
		metric.WithDescription("Total number of accounts flagged as suspicious"),
	)
	if err != nil {
		return err
	}

	r.ActiveRingsGauge, err = r.meter.Int64ObservableGauge(
		"ringdetect.pipeline.active_rings",
		metric.WithDescription("Fraud rings detected in the most recently completed batch"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeRingCount)
			return nil
		}),
	)
	return err
}

func (r *Registry) initAPIMetrics() error {
	var err error

	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"ringdetect.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.APIRequestCounter, err = r.meter.Int64Counter(
		"ringdetect.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)
	return err
}

// RecordStage records the duration of a single pipeline stage (spec.md §4's
// nine stages: graph, cycles, fan-in, fan-out, shell chains, scoring, ring
// assembly, enrichment, community/promotion).
func (r *Registry) RecordStage(ctx context.Context, stage string, durationMS float64) {
	r.StageDuration.Record(ctx, durationMS, metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordBatch records a completed batch's aggregate metrics and updates the
// observable active-rings gauge to reflect it.
func (r *Registry) RecordBatch(ctx context.Context, transactionCount int, ringsByType map[string]int, suspiciousCount int, durationSeconds float64) {
	r.BatchDuration.Record(ctx, durationSeconds)
	r.TransactionsCounter.Add(ctx, int64(transactionCount))
	r.SuspiciousAccounts.Add(ctx, int64(suspiciousCount))

	total := int64(0)
	for patternType, count := range ringsByType {
		r.RingsDetectedTotal.Add(ctx, int64(count), metric.WithAttributes(
			attribute.String("pattern_type", patternType),
		))
		total += int64(count)
	}

	r.mu.Lock()
	r.activeRingCount = total
	r.mu.Unlock()
}

// RecordAPIRequest records a single HTTP request's duration and outcome.
func (r *Registry) RecordAPIRequest(ctx context.Context, durationMS float64, method, path string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}
	r.APIRequestDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.APIRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
