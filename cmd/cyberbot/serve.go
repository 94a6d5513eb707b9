package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/geacyber/cyberbot/internal/config"
	"github.com/geacyber/cyberbot/internal/logging"
	"github.com/geacyber/cyberbot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cyberbot server",
	Long:  "Start the HTTP API server and, when configured, the Slack and Telegram bots.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
	}()

	return srv.Start(ctx)
}
