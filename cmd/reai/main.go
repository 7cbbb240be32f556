// Command reai runs the county index service: it loads the source CSVs,
// builds and scores the index, runs the sensitivity analysis, writes the
// results to the configured sinks, and serves the results over HTTP until
// stopped.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/reai-pipeline/internal/adapter/csvout"
	"github.com/couchcryptid/reai-pipeline/internal/adapter/csvsource"
	"github.com/couchcryptid/reai-pipeline/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/reai-pipeline/internal/adapter/kafka"
	sqliteadapter "github.com/couchcryptid/reai-pipeline/internal/adapter/sqlite"
	"github.com/couchcryptid/reai-pipeline/internal/config"
	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/observability"
	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	baseline, scenarios, err := loadWeights(cfg, logger)
	if err != nil {
		logger.Error("failed to load weights", "error", err)
		os.Exit(1)
	}

	loader := csvsource.NewLoader(cfg.DataDir, logger)
	sinks := []pipeline.ResultSink{csvout.NewWriter(cfg.OutputDir, logger)}

	var store *sqliteadapter.Store
	if cfg.SQLitePath != "" {
		store, err = sqliteadapter.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("sqlite store enabled", "path", cfg.SQLitePath)
	}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sinks = append(sinks, publisher)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(loader, sinks, logger, metrics,
		baseline, scenarios, cfg.MissingPolicy, domain.DefaultPolarities())

	srv := httpapi.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the pipeline once; the HTTP API serves the results afterwards.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline run error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite store close error", "error", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadWeights reads the weight file when configured, otherwise uses the
// built-in baseline and scenarios.
func loadWeights(cfg *config.Config, logger *slog.Logger) (domain.WeightConfig, []domain.WeightConfig, error) {
	if cfg.WeightsFile == "" {
		return domain.DefaultWeightConfig(), domain.DefaultScenarios(), nil
	}
	baseline, scenarios, err := domain.LoadWeightFile(cfg.WeightsFile)
	if err != nil {
		return domain.WeightConfig{}, nil, err
	}
	logger.Info("weights loaded", "file", cfg.WeightsFile,
		"baseline", baseline.Name, "scenarios", len(scenarios))
	return baseline, scenarios, nil
}
