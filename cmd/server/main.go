package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/citeshield/internal/api"
	"github.com/dgallion1/citeshield/internal/config"
	"github.com/dgallion1/citeshield/internal/metrics"
	"github.com/dgallion1/citeshield/internal/pipeline"
	"github.com/dgallion1/citeshield/internal/progress"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	latency := metrics.NewLatencyStats(time.Hour)

	svc := pipeline.NewService(pipeline.Options{
		Chunk:         cfg.Chunk(),
		OverviewLimit: cfg.OverviewSections,
		SessionTTL:    cfg.SessionTTL,
		Observer:      progress.Fanout(progress.Logger(log.With("component", "run")), m, latency),
	}, log.With("component", "sessions"))
	svc.Start(ctx)

	srv := api.NewServer(svc, api.Options{Metrics: m, Latency: latency, Gatherer: reg}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		svc.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting citeshield",
		"port", cfg.Port,
		"max_lines", cfg.ChunkMaxLines,
		"overlap", cfg.ChunkOverlap,
		"session_ttl", cfg.SessionTTL.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
