package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemerge/propref/internal/app"
	"github.com/linemerge/propref/internal/config"
	"github.com/linemerge/propref/internal/observability"
	"github.com/linemerge/propref/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopPyroscope, err := observability.InitPyroscope(cfg, slogger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, slogger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("ops server starting", "addr", cfg.OpsAddr)
		if err := application.Ops.ListenAndServe(cfg.OpsAddr); err != nil {
			logger.Error("ops server failed", "error", err)
			stop()
		}
	}()

	go runCollectionLoop(ctx, cfg, application, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application.Reviews.LogSummary(shutdownCtx)

	if err := application.Ops.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown failed", "error", err)
	}
	if err := application.Close(); err != nil {
		logger.Warn("close app", "error", err)
	}
	if pprofSrv != nil {
		_ = observability.StopPprofServer(pprofSrv, slogger, 5*time.Second)
	}
	if stopPyroscope != nil {
		_ = stopPyroscope()
	}
	if shutdownUptrace != nil {
		_ = shutdownUptrace(shutdownCtx)
	}

	logger.Info("stopped")
}

// runCollectionLoop runs one collection pass immediately, then on every
// tick until the context is canceled.
func runCollectionLoop(ctx context.Context, cfg config.Config, application *app.App, logger *logging.Logger) {
	if len(cfg.Sources) == 0 {
		logger.Warn("no sources configured, collection loop idle")
		return
	}

	collect := func() {
		if _, err := application.Ingestion.CollectAll(ctx, cfg.Sources); err != nil {
			logger.ErrorContext(ctx, "collection run failed", "error", err)
		}
		application.Reviews.LogSummary(ctx)
	}

	collect()
	ticker := time.NewTicker(cfg.CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collect()
		}
	}
}
