package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
	"github.com/fyrsmithlabs/notesd/internal/enrich"
	"github.com/fyrsmithlabs/notesd/internal/logging"
	"github.com/fyrsmithlabs/notesd/internal/services"
	"github.com/fyrsmithlabs/notesd/internal/store"
	"github.com/fyrsmithlabs/notesd/internal/telemetry"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	registry  services.Registry
}

// newApp wires logging, telemetry, storage and enrichment from cfg. With
// stderr set, logs go to stderr so stdout stays free for a protocol.
func newApp(ctx context.Context, cfg *config.Config, stderr bool) (*app, error) {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return nil, err
	}

	logCfg := logging.FromSettings(cfg.Log.Level, cfg.Log.Format)
	if stderr {
		logCfg.Output = logging.OutputConfig{Stderr: true}
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	repo, err := store.Open(cfg, logger.Underlying())
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	enricher := enrich.NewFromConfig(cfg, logger.Underlying())
	logger.Info(ctx, "enrichment provider selected", zap.String("provider", enricher.Select().Name()))

	registry, err := services.NewRegistry(services.Options{
		Notes:    repo,
		Enricher: enricher,
		Logger:   logger,
	})
	if err != nil {
		_ = repo.Close()
		_ = enricher.Close()
		_ = tel.Shutdown(context.Background())
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, telemetry: tel, registry: registry}, nil
}

// Close releases storage and providers, then flushes telemetry and logs.
func (a *app) Close() error {
	errs := []error{a.registry.Close()}
	errs = append(errs, a.telemetry.Shutdown(context.Background()))
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
