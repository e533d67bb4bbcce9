// Package cli provides common CLI initialization utilities shared by
// cmd/transcoop, cmd/report-worker and cmd/export.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transcoop/internal/amqp"
	"transcoop/internal/config"
	applog "transcoop/internal/log"
	"transcoop/internal/services"
	"transcoop/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger initializes structured logging for a component and sets it as
// the default logger. LOG_FILE, when set, adds a rotating file copy.
func SetupLogger(component string, level slog.Level, file string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     level,
		Component: component,
		File:      file,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the SQLite database, applying pending migrations.
func InitStore(ctx context.Context, dbPath string) (*storage.Store, error) {
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store at %s: %w", dbPath, err)
	}
	return store, nil
}

// InitAMQP connects the event client when AMQP_URL is configured. It returns
// a nil publisher (not a typed nil) when events are disabled or unreachable,
// so services skip publishing instead of failing.
func InitAMQP(cfg *config.Config) (services.EventPublisher, *amqp.Client) {
	if !cfg.EventsEnabled() {
		slog.Info("AMQP not configured, events disabled")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Warn("Failed to connect to AMQP, events disabled", "error", err)
		return nil, nil
	}
	slog.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			slog.Warn("Shutdown timeout reached")
		} else {
			slog.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
