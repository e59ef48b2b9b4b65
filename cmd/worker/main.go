package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emailbuilder/emailbuilder/internal/app"
	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/queue"
)

var concurrency int

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background email send worker for EmailBuilder",
	RunE:  runWorker,
}

func init() {
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent sends (defaults to queue.concurrency)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if concurrency > 0 {
		cfg.Queue.Concurrency = concurrency
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().
		Str("queue", cfg.Queue.Name).
		Int("concurrency", cfg.Queue.Concurrency).
		Msg("starting EmailBuilder worker")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := queue.NewServer(cfg.Redis, cfg.Queue, log)
	if err := srv.Start(queue.NewServeMux(c.Processor)); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	<-ctx.Done()
	log.Info().Msg("shutting down worker...")
	srv.Shutdown()
	log.Info().Msg("worker stopped")
	return nil
}
