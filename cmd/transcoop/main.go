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

	"transcoop/internal/cli"
	"transcoop/internal/config"
	apphttp "transcoop/internal/http"
	applog "transcoop/internal/log"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(applog.ComponentApp, cfg.SlogLevel(), cfg.LogFile)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cli.InitStore(ctx, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	events, amqpClient := cli.InitAMQP(cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	svc := apphttp.NewServices(store, events, cfg.AdminFee())

	if cfg.AdminPassword != "" {
		if err := svc.Auth.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
	} else {
		logger.WarnContext(ctx, "ADMIN_PASSWORD not set, no operator account will be seeded")
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		Company:        cfg.CompanyName,
		Logger:         logger,
	}, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting transcoop server",
			"port", cfg.Port,
			"request_timeout", cfg.RequestTimeout,
			"default_admin_fee", cfg.DefaultAdminFee,
			"events_enabled", events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
