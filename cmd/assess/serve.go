package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/server"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/storage/sqlite"
)

var (
	portFlag int
	warmFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	Long: `Start the HTTP server with the REST API and WebSocket editor channel.

API endpoints are under /api.

Examples:
  assess serve
  assess serve --port 9090 --warm`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&warmFlag, "warm", false, "Load every enabled runtime before the first request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	if warmFlag {
		go eng.Warm(context.Background(), execution.Languages()...)
	}

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	srv := server.New(eng, store, logger.Named("server"))

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}
