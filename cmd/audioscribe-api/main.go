package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audioscribe/internal/cache"
	"audioscribe/internal/config"
	"audioscribe/internal/engine"
	"audioscribe/internal/httpapi"
	"audioscribe/internal/intake"
	"audioscribe/internal/observability"
	"audioscribe/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	var speech engine.Engine = engine.NewWhisperEngine(cfg.PythonBin, cfg.Model, cfg.Device,
		engine.WithObserver(metrics.ObserveEngineRun))
	speech = engine.WithConcurrencyLimit(speech, cfg.EngineConcurrency)

	var resultCache *cache.Cache
	if cfg.CacheEnabled {
		resultCache, err = cache.New(cfg.CacheDir)
		if err != nil {
			logger.Error("cache init failed", "dir", cfg.CacheDir, "error", err)
			os.Exit(1)
		}
	}

	stager := intake.NewStager(cfg.TempDir, cfg.AllowedExtensions)

	// cache.Cache is optional; a typed nil must not reach the
	// interface-valued pipeline field.
	var pipelineCache pipeline.ResultCache
	var cacheAdmin httpapi.CacheAdmin
	if resultCache != nil {
		pipelineCache = resultCache
		cacheAdmin = resultCache
	}

	pipelineService := pipeline.New(stager, speech, pipelineCache, metrics, logger, cfg.Model, cfg.TranscribeTimeout)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Pipeline:       pipelineService,
		Cache:          cacheAdmin,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr, "model", cfg.Model, "device", cfg.Device)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
