package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
	httpserver "github.com/fyrsmithlabs/notesd/internal/http"
	"github.com/fyrsmithlabs/notesd/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the MCP endpoint at /mcp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error(context.Background(), "shutdown", zap.Error(err))
		}
	}()

	mcpServer, err := mcp.NewServer(&mcp.Config{
		Name:    "notesd",
		Version: version,
		Logger:  a.logger.Underlying(),
	}, a.registry)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	srv, err := httpserver.NewServer(a.registry, a.logger, &httpserver.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		MCPHandler: mcpServer.Handler(),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	a.logger.Info(ctx, "starting notesd",
		zap.String("backend", a.registry.Notes().Name()),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
