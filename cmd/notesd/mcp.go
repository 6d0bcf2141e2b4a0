package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
	"github.com/fyrsmithlabs/notesd/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP over stdio",
		Long: `Serve the note tools over the MCP stdio transport.

Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMCP(ctx, cfg)
		},
	}
}

func runMCP(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error(context.Background(), "shutdown", zap.Error(err))
		}
	}()

	s, err := mcp.NewServer(&mcp.Config{
		Name:    "notesd",
		Version: version,
		Logger:  a.logger.Underlying(),
	}, a.registry)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
