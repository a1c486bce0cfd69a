package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/natshandler"
)

var natsURLFlag string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Serve run and grade requests from NATS",
	Long: `Connect to NATS and answer requests on <prefix>.run.request and
<prefix>.grade.request. Workers share a queue group, so several can run side by side.

Examples:
  assess worker
  assess worker --nats nats://broker:4222`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&natsURLFlag, "nats", "", "NATS server URL (overrides config)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, logger, eng, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	url := cfg.NATS.URL
	if natsURLFlag != "" {
		url = natsURLFlag
	}

	nc, err := nats.Connect(url,
		nats.Name("assess-worker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := natshandler.New(eng, logger.Named("nats"))
	if _, err := handler.Subscribe(ctx, nc, cfg.NATS.SubjectPrefix); err != nil {
		return err
	}
	logger.Info("worker ready", zap.String("url", url), zap.String("prefix", cfg.NATS.SubjectPrefix))

	<-ctx.Done()
	logger.Info("draining nats connection")
	return nc.Drain()
}
