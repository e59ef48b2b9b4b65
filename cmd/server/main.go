package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emailbuilder/emailbuilder/internal/app"
	"github.com/emailbuilder/emailbuilder/internal/auth"
	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/handler"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/middleware"
	"github.com/emailbuilder/emailbuilder/internal/queue"
	"github.com/emailbuilder/emailbuilder/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "emailbuilder: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", handler.Version).Msg("starting EmailBuilder server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer c.Close()

	tokens := auth.NewTokenService(cfg.Security)
	apiKeys := auth.NewAPIKeyVerifier(cfg.Security.AdminAPIKeyHash)
	if !tokens.Enabled() && !apiKeys.Enabled() {
		log.Warn().Msg("neither security.jwt_secret nor security.admin_api_key_hash is set; the admin API will reject every request")
	}

	// Initialize handlers
	h := handler.New(log, c.Templates, c.Mail, map[string]handler.HealthChecker{
		"postgres": c.DB,
		"redis":    c.Redis,
	})

	// Initialize middleware
	mw := middleware.New(c.Redis, log, cfg)

	// Set up router
	r := router.New(h, mw, router.Options{
		Tokens:         tokens,
		APIKeys:        apiKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var background []func(context.Context) error
	if cfg.Queue.RunWorkerInServer {
		worker := queue.NewServer(cfg.Redis, cfg.Queue, log)
		background = append(background, func(ctx context.Context) error {
			log.Info().Str("queue", cfg.Queue.Name).Msg("send worker started")
			if err := worker.Start(queue.NewServeMux(c.Processor)); err != nil {
				return fmt.Errorf("send worker error: %w", err)
			}
			<-ctx.Done()
			worker.Shutdown()
			return nil
		})
	}

	if err := serve(ctx, log, srv, background...); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}

// serve runs srv and the background tasks until ctx is cancelled or one of
// them fails, then shuts the server down and returns the first error.
func serve(ctx context.Context, log *logger.Logger, srv *http.Server, background ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	for _, task := range background {
		g.Go(func() error { return task(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
