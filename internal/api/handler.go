package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/pipeline"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	pipeline *pipeline.Pipeline
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(p *pipeline.Pipeline, repo domain.Repository, cache domain.Cache, bus domain.EventBus, version string) *Handler {
	return &Handler{
		pipeline: p,
		repo:     repo,
		cache:    cache,
		bus:      bus,
		version:  version,
	}
}

// CreateBatch handles POST /v1/batches: runs the pipeline over a posted
// transaction batch and returns the full result.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var batch domain.TransactionBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(batch.Transactions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transactions must not be empty",
		})
		return
	}

	result := h.pipeline.Analyze(batch.Transactions, batch.Mode, time.Since(start).Seconds())
	result.Summary.ProcessingTimeSeconds = time.Since(start).Seconds()
	result.RunID = uuid.New().String()

	run := &domain.Run{
		RunID:     result.RunID,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}

	if h.repo != nil {
		if err := h.repo.SaveRun(ctx, run); err != nil {
			slog.Error("failed to save run", "run_id", run.RunID, "error", err)
		}
	}

	if h.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := h.cache.Set(ctx, "run:"+run.RunID, payload, 5*time.Minute); err != nil {
				slog.Error("failed to cache run", "run_id", run.RunID, "error", err)
			}
		}
	}

	if h.bus != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := h.bus.Publish(ctx, domain.TopicBatchAnalyzed, payload); err != nil {
				slog.Error("failed to publish batch-analyzed event", "run_id", run.RunID, "error", err)
			}
		}
	}

	slog.Info("batch analyzed",
		"run_id", run.RunID,
		"transactions", len(batch.Transactions),
		"accounts", result.Summary.TotalAccountsAnalyzed,
		"rings", result.Summary.FraudRingsDetected,
	)

	writeJSON(w, http.StatusOK, result)
}

// GetBatch handles GET /v1/batches/{id}: fetches a persisted run, checking
// the cache before the repository.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, "run:"+runID); err == nil && cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		slog.Error("failed to get run", "run_id", runID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "run not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, run.Result)
}

// GetAccount handles GET /v1/accounts/{id}: a convenience projection of a
// single account's most recently observed view (spec.md §6).
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "id")

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	acct, err := h.repo.GetAccount(ctx, accountID)
	if err != nil {
		slog.Error("failed to get account", "account_id", accountID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "account not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, acct)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
