// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/eventreg/internal/config"
	"github.com/Shivanand-hulikatti/eventreg/internal/database"
	"github.com/Shivanand-hulikatti/eventreg/internal/handler"
	"github.com/Shivanand-hulikatti/eventreg/internal/logger"
	"github.com/Shivanand-hulikatti/eventreg/internal/metric"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/Shivanand-hulikatti/eventreg/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config.yaml if present)")
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	if err := run(*configPath, *migrateOnly); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, migrateOnly bool) error {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the store ────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()
	if migrateOnly {
		slog.Info("migrations applied, exiting")
		return nil
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	clock := service.SystemClock{}
	eventSvc := service.NewEventService(store, clock, cfg.Events.DefaultTimezone)
	regSvc := service.NewRegistrationService(store, clock)
	metrics := metric.New()
	eventHandler := handler.NewEventHandler(eventSvc, regSvc, metrics, handler.Paging{
		DefaultSize: cfg.Events.PageSize,
		MaxSize:     cfg.Events.MaxPageSize,
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(eventHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStore connects to the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		store := repository.NewSQLiteStore(db)
		if err := store.CreateSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("database schema: %w", err)
		}
		slog.Info("connected to SQLite", "path", cfg.SQLitePath)
		return store, func() { _ = db.Close() }, nil

	default:
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database migrations: %w", err)
		}
		slog.Info("connected to PostgreSQL")
		return repository.NewPostgresStore(pool), pool.Close, nil
	}
}
