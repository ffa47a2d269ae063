package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/trainfuel/internal/config"
	"github.com/JonMunkholm/trainfuel/internal/core"
	"github.com/JonMunkholm/trainfuel/internal/database"
	"github.com/JonMunkholm/trainfuel/internal/events"
	"github.com/JonMunkholm/trainfuel/internal/logging"
	"github.com/JonMunkholm/trainfuel/internal/web"
)

// eventSink is a publisher that must be closed on shutdown.
type eventSink interface {
	core.EventPublisher
	io.Closer
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"events_enabled", cfg.Events.Enabled,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		slog.Info("schema applied")
	}

	var publisher eventSink = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.TopicPrefix)
		slog.Info("event publishing enabled", "brokers", cfg.Events.Brokers, "prefix", cfg.Events.TopicPrefix)
	}

	store := database.New(pool, cfg.Database.BatchSize)
	service := core.NewService(store, publisher, cfg.ServiceOptions())
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for imports still parsing after the listener closed
		if status := service.ImportStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
		}
		if err := service.Drain(shutdownCtx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}

		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
