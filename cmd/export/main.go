// Command export renders one month's documents in a single run: the
// settlements workbook, the administrative expense statement, every payslip
// and, when configured, the Google Sheets mirror.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"transcoop/internal/cli"
	"transcoop/internal/config"
	"transcoop/internal/core"
	applog "transcoop/internal/log"
	"transcoop/internal/report"
	"transcoop/internal/services"

	"golang.org/x/sync/errgroup"
)

// errUsage marks bad flags; main exits with status 2 for them.
var errUsage = errors.New("usage")

type options struct {
	period   core.Period
	outDir   string
	toSheets bool
}

func main() {
	now := time.Now()
	month := flag.Int("month", int(now.Month()), "month to export (1-12)")
	year := flag.Int("year", now.Year(), "year to export")
	outDir := flag.String("out", "", "output directory (default EXPORT_DIR)")
	toSheets := flag.Bool("sheets", false, "also mirror the settlements table to Google Sheets")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(applog.ComponentReport, cfg.SlogLevel(), cfg.LogFile)

	opts := options{
		period:   core.Period{Month: *month, Year: *year},
		outDir:   *outDir,
		toSheets: *toSheets,
	}
	if err := run(context.Background(), cfg, opts); err != nil {
		logger.Error("Export failed", applog.FieldError, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	p := opts.period
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if opts.toSheets && !cfg.SheetsEnabled() {
		return fmt.Errorf("%w: -sheets requires GOOGLE_SPREADSHEET_ID", errUsage)
	}
	dir := opts.outDir
	if dir == "" {
		dir = cfg.ExportDir
	}

	store, err := cli.InitStore(ctx, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	settlements := services.NewSettlementService(store, nil, cfg.AdminFee())
	aggregation := services.NewAggregationService(store)

	// Reads go first and in sequence: the store has a single connection.
	sp, err := settlements.ListByPeriod(ctx, p)
	if err != nil {
		return fmt.Errorf("list settlements: %w", err)
	}
	expense, err := aggregation.AdminExpenseReport(ctx, p)
	if err != nil {
		return fmt.Errorf("load admin expense report: %w", err)
	}
	payslips := make([]core.Payslip, 0, len(sp.Rows))
	for _, st := range sp.Rows {
		ps, err := settlements.Payslip(ctx, st.ID)
		if err != nil {
			return fmt.Errorf("load payslip %d: %w", st.ID, err)
		}
		payslips = append(payslips, ps)
	}

	var sheets *report.SheetsExporter
	if opts.toSheets {
		creds, err := report.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			return fmt.Errorf("load Google credentials: %w", err)
		}
		if sheets, err = report.NewSheetsExporter(ctx, cfg.GoogleSpreadsheetID, creds); err != nil {
			return fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
	}

	periodDir := filepath.Join(dir, fmt.Sprintf("%04d-%02d", p.Year, p.Month))
	if err := os.MkdirAll(periodDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", periodDir, err)
	}

	pdf := report.PDF{Company: cfg.CompanyName}
	table := report.SettlementsTable(p, sp.Rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		return writeFile(filepath.Join(periodDir, "flujo.xlsx"), func(w io.Writer) error {
			return report.ExcelExporter{}.Export(w, table)
		})
	})
	g.Go(func() error {
		return writeFile(filepath.Join(periodDir, "gastos_admin.pdf"), func(w io.Writer) error {
			return pdf.AdminExpense(w, expense)
		})
	})
	for _, ps := range payslips {
		g.Go(func() error {
			name := fmt.Sprintf("rol_pagos_%d.pdf", ps.Settlement.ID)
			return writeFile(filepath.Join(periodDir, name), func(w io.Writer) error {
				return pdf.Payslip(w, ps)
			})
		})
	}
	if sheets != nil {
		g.Go(func() error {
			return sheets.Export(gctx, table)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Export completed",
		applog.FieldMonth, p.Month,
		applog.FieldYear, p.Year,
		"dir", periodDir,
		"payslips", len(payslips),
		"sheets", sheets != nil)
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	slog.Info("File written", "file", path)
	return nil
}
