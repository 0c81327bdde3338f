// Ringdetect server - fraud-ring detection that deploys in 60 seconds.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/ringdetect/internal/api"
	"github.com/opensource-finance/ringdetect/internal/bus"
	"github.com/opensource-finance/ringdetect/internal/cache"
	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/metrics"
	"github.com/opensource-finance/ringdetect/internal/pipeline"
	"github.com/opensource-finance/ringdetect/internal/repository"
	"github.com/opensource-finance/ringdetect/internal/rules"
	"github.com/opensource-finance/ringdetect/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("RINGDETECT_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting ringdetect",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg := domain.DefaultConfig()
	if os.Getenv("RINGDETECT_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	engine, err := rules.NewEngine(rules.DefaultThresholds())
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized")

	p := pipeline.New(engine)
	slog.Info("detection pipeline initialized", "mode", cfg.DetectionMode)

	if registry, err := metrics.NewRegistry("ringdetect"); err != nil {
		slog.Error("failed to initialize metrics registry", "error", err)
	} else {
		p.SetMetrics(registry)
		slog.Info("metrics registry initialized")
	}

	// Async alert worker: fans out per-account alerts off the back of every
	// completed batch, regardless of tier - it only reads the event bus.
	asyncWorker := worker.NewWorker(busImpl)
	if err := asyncWorker.Start(); err != nil {
		slog.Error("failed to start alert worker", "error", err)
	} else {
		slog.Info("alert worker started")
	}

	srv := api.NewServer(cfg.Server, p, repo, cacheImpl, busImpl, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("ringdetect is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	if err := asyncWorker.Stop(); err != nil {
		slog.Error("failed to stop alert worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("ringdetect shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔════════════════════════════════════════╗")
	fmt.Println("  ║            RINGDETECT                   ║")
	fmt.Println("  ║     Fraud Ring Detection Engine         ║")
	fmt.Println("  ║   Cycles, fan-in/out, shell chains.     ║")
	fmt.Println("  ╚════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /v1/batches        - Analyze a transaction batch")
	fmt.Println("    GET  /v1/batches/{id}   - Get a past batch result")
	fmt.Println("    GET  /v1/accounts/{id}  - Get an account's latest view")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println("    GET  /ready             - Readiness check")
	fmt.Println()
}
