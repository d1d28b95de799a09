package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fundingdata/internal/application"
	"github.com/JonMunkholm/fundingdata/internal/config"
	"github.com/JonMunkholm/fundingdata/internal/logging"
	"github.com/JonMunkholm/fundingdata/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := web.NewServer(web.Deps{
		Ingester: app.Service,
		Files:    app.Service,
		Limiter:  app.Limiter,
		DB:       app.DB,
		Metrics:  app.Metrics,
	}, web.Options{
		MaxFileSize:    cfg.Ingest.MaxFileSize,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TrustedProxies: cfg.Server.TrustedProxies,
		RateLimit:      cfg.Server.RateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(cfg.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := app.Limiter.Active(); active > 0 {
			slog.Info("waiting for ingests to complete", "active", active)
			if err := app.Limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("ingests did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
