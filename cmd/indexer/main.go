package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkravets/product-search-assistant/internal/bootstrap"
	"github.com/mkravets/product-search-assistant/internal/config"
	"github.com/mkravets/product-search-assistant/internal/observability/logging"
	"github.com/mkravets/product-search-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("indexer", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexerMetrics("indexer")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", indexerMetrics.Handler())
		slog.Info("indexer_metrics_listening", "port", cfg.IndexerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.IndexerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("indexer_metrics_failed", "error", err)
		}
	}()

	slog.Info("indexer_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReindexRequested(ctx, func(handlerCtx context.Context, requestID string) error {
		reindexCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		start := time.Now()
		indexerMetrics.StartReindex()
		indexed, err := app.ReindexUC.Reindex(reindexCtx, requestID)
		indexerMetrics.FinishReindex("indexer", time.Since(start), indexed, err)
		if err != nil {
			return err
		}
		slog.Info("reindex_completed", "request_id", requestID, "products", indexed)
		return nil
	})
	if err != nil {
		slog.Error("indexer_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
