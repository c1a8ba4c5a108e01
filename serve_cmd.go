package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/tripcost-seeder/app/logger"
	"github.com/FACorreiaa/tripcost-seeder/app/tracer"
	"github.com/FACorreiaa/tripcost-seeder/config"
	"github.com/FACorreiaa/tripcost-seeder/internal/container"
	"github.com/FACorreiaa/tripcost-seeder/internal/router"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only city lookup API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), a.serve)
		},
	}
}

const (
	defaultRequestTimeout = 60 * time.Second
	// writeTimeoutSlack leaves room for the timeout middleware to send its 504.
	writeTimeoutSlack = 5 * time.Second
)

func requestTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return defaultRequestTimeout
	}
	return cfg.Timeout
}

func newHTTPHandler(c *container.Container, logger *slog.Logger, cfg config.ServerConfig) http.Handler {
	mainRouter := router.SetupRouter(&router.Config{
		CityHandler:    c.CityHandler,
		MetricsHandler: tracer.MetricsHandler(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(requestTimeout(cfg)))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", mainRouter)
	return r
}

func newHTTPServer(handler http.Handler, cfg config.ServerConfig, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout(cfg) + writeTimeoutSlack,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func (a *app) serve(ctx context.Context, c *container.Container) error {
	logger := a.logger
	srv := newHTTPServer(newHTTPHandler(c, logger, a.cfg.Server), a.cfg.Server, logger)
	serverAddress := srv.Addr

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
		return err
	}
	logger.Info("HTTP server gracefully stopped")

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
