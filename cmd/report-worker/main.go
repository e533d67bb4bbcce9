package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"transcoop/internal/cli"
	"transcoop/internal/config"
	"transcoop/internal/core"
	applog "transcoop/internal/log"
	"transcoop/internal/report"
	"transcoop/internal/services"
	"transcoop/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(applog.ComponentWorker, cfg.SlogLevel(), cfg.LogFile)
	logger.Info("Starting report-worker", "export_dir", cfg.ExportDir)

	if err := run(cfg, logger); err != nil {
		logger.Error("Report worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	if !cfg.EventsEnabled() {
		return errors.New("AMQP_URL is required for the report worker")
	}

	store, err := cli.InitStore(context.Background(), cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, amqpClient := cli.InitAMQP(cfg)
	if amqpClient == nil {
		return errors.New("AMQP client unavailable")
	}
	defer amqpClient.Close()

	var sheets worker.TableExporter
	if cfg.SheetsEnabled() {
		creds, err := report.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			return fmt.Errorf("load Google credentials: %w", err)
		}
		exp, err := report.NewSheetsExporter(context.Background(), cfg.GoogleSpreadsheetID, creds)
		if err != nil {
			return fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		sheets = exp
		logger.Info("Google Sheets mirroring enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	settlements := services.NewSettlementService(store, nil, cfg.AdminFee())
	w := worker.NewReportWorker(settlements, report.PDF{Company: cfg.CompanyName}, cfg.ExportDir, sheets)

	ctx, done := cli.GracefulShutdown(30*time.Second, nil)

	now := time.Now()
	current := core.Period{Month: int(now.Month()), Year: now.Year()}
	logger.Info("Performing startup payslip regeneration", "month", current.Month, "year", current.Year)
	if _, err := w.RegeneratePeriod(ctx, current); err != nil {
		logger.Error("Startup regeneration failed", applog.FieldError, err)
	}

	if err := amqpClient.Consume(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume messages: %w", err)
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}
