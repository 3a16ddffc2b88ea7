// Command mhw runs the marine heatwave analysis pipeline: fetch OISST SST
// for the configured years and region, detect marine heatwaves, compute the
// Niño 3.4 index, and write plots and Parquet exports. Health, readiness,
// and metrics endpoints stay up for the duration of the run.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scottwales/marine-heatwaves/internal/adapter/erddap"
	httpadapter "github.com/scottwales/marine-heatwaves/internal/adapter/http"
	kafkaadapter "github.com/scottwales/marine-heatwaves/internal/adapter/kafka"
	"github.com/scottwales/marine-heatwaves/internal/adapter/parquet"
	"github.com/scottwales/marine-heatwaves/internal/adapter/render"
	"github.com/scottwales/marine-heatwaves/internal/config"
	"github.com/scottwales/marine-heatwaves/internal/observability"
	"github.com/scottwales/marine-heatwaves/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := erddap.NewClient(cfg, logger)
	fetcher := erddap.NewCachedFetcher(client, cfg.CacheDir, logger, metrics)
	analyzer := pipeline.NewAnalyzer(cfg, logger)
	renderer := render.New(logger)
	exporter := parquet.NewExporter(logger)

	// Event publication is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.EventSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka event sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka event sink disabled")
	}

	p := pipeline.New(fetcher, analyzer, renderer, exporter, sink, cfg, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve health/readiness/metrics while the analysis runs.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- p.Run(ctx)
	}()

	exitCode := 0
	select {
	case err := <-runErr:
		if err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
