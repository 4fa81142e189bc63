// Package app wires configuration, storage and HTTP handlers into the
// vidgallery commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidgallery/backend/internal/config"
	"github.com/vidgallery/backend/internal/db"
	"github.com/vidgallery/backend/internal/handlers"
	"github.com/vidgallery/backend/internal/httpserver"
	"github.com/vidgallery/backend/internal/logging"
	"github.com/vidgallery/backend/internal/middleware"
)

// Run bootstraps the vidgallery backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)
	return logger
}

func connect(ctx context.Context, cfg config.Config) (db.Pool, error) {
	return db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DatabaseMaxConns})
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx = logging.WithLogger(ctx, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("release dependencies", "error", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(mux))

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"siteUrl", cfg.SiteURL,
		"cache", cfg.Cache.Backend,
		"thumbnailImport", cfg.ObjectStore.Bucket != "",
	)

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	logger.Info("http server stopped")
	return nil
}
