package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"transcoop/internal/amqp"
	"transcoop/internal/core"
	applog "transcoop/internal/log"
	"transcoop/internal/report"
	"transcoop/internal/services"
)

// TableExporter receives the month's settlement table after each save.
// *report.SheetsExporter satisfies it.
type TableExporter interface {
	Export(ctx context.Context, t report.Table) error
}

// ReportWorker keeps generated documents in step with the database: every
// saved settlement or loan payment re-renders the affected payslip under
// exportDir, and optionally mirrors the period to a spreadsheet.
type ReportWorker struct {
	settlements *services.SettlementService
	pdf         report.PDF
	exportDir   string
	sheets      TableExporter
}

// NewReportWorker creates a worker. sheets may be nil.
func NewReportWorker(settlements *services.SettlementService, pdf report.PDF, exportDir string, sheets TableExporter) *ReportWorker {
	return &ReportWorker{
		settlements: settlements,
		pdf:         pdf,
		exportDir:   exportDir,
		sheets:      sheets,
	}
}

// HandleEvent dispatches one AMQP event. Records that no longer exist are
// logged and acknowledged; other failures are returned for redelivery.
func (w *ReportWorker) HandleEvent(ctx context.Context, e *amqp.Event) error {
	var err error
	switch e.Type {
	case amqp.EventSettlementSaved:
		err = w.handleSettlementSaved(ctx, e)
	case amqp.EventLoanPaymentApplied:
		err = w.handleLoanPayment(ctx, e)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event", "event_type", e.Type)
		return nil
	}
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Event refers to a missing record, skipping", "event_type", e.Type, "error", err)
		return nil
	}
	return err
}

func (w *ReportWorker) handleSettlementSaved(ctx context.Context, e *amqp.Event) error {
	m, err := e.SettlementSaved()
	if err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	slog.InfoContext(ctx, "Processing settlement event",
		"settlement_id", m.SettlementID, "driver_id", m.DriverID, "month", m.Month, "year", m.Year)

	if _, err := w.WritePayslip(ctx, m.SettlementID); err != nil {
		return err
	}
	if w.sheets != nil {
		if err := w.exportPeriod(ctx, core.Period{Month: m.Month, Year: m.Year}); err != nil {
			return err
		}
	}
	return nil
}

// handleLoanPayment refreshes the payslip of the driver's latest period so
// the pending loan balance it prints is current.
func (w *ReportWorker) handleLoanPayment(ctx context.Context, e *amqp.Event) error {
	m, err := e.LoanPaymentApplied()
	if err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	slog.InfoContext(ctx, "Processing loan payment event",
		"loan_id", m.LoanID, "driver_id", m.DriverID, "balance", m.Balance, "status", m.Status)

	st, found, err := w.settlements.LatestForDriver(ctx, m.DriverID)
	if err != nil {
		return fmt.Errorf("latest settlement for driver %d: %w", m.DriverID, err)
	}
	if !found {
		slog.InfoContext(ctx, "Driver has no settlement yet, nothing to refresh", "driver_id", m.DriverID)
		return nil
	}
	_, err = w.WritePayslip(ctx, st.ID)
	return err
}

// PayslipPath is where the payslip of settlement id for period p is kept.
func (w *ReportWorker) PayslipPath(p core.Period, id int64) string {
	return filepath.Join(w.exportDir, "payslips",
		fmt.Sprintf("%04d-%02d", p.Year, p.Month),
		fmt.Sprintf("rol_pagos_%d.pdf", id))
}

// WritePayslip renders the payslip and replaces the file atomically.
func (w *ReportWorker) WritePayslip(ctx context.Context, settlementID int64) (string, error) {
	ps, err := w.settlements.Payslip(ctx, settlementID)
	if err != nil {
		return "", err
	}
	path := w.PayslipPath(core.Period{Month: ps.Settlement.Month, Year: ps.Settlement.Year}, settlementID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create payslip directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".payslip-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp payslip: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.pdf.Payslip(tmp, ps); err != nil {
		tmp.Close()
		return "", fmt.Errorf("render payslip %d: %w", settlementID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp payslip: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move payslip into place: %w", err)
	}

	slog.InfoContext(ctx, "Payslip written", "settlement_id", settlementID, "file", path)
	return path, nil
}

func (w *ReportWorker) exportPeriod(ctx context.Context, p core.Period) error {
	sp, err := w.settlements.ListByPeriod(ctx, p)
	if err != nil {
		return fmt.Errorf("list settlements for export: %w", err)
	}
	t := report.SettlementsTable(p, sp.Rows)
	if err := w.sheets.Export(ctx, t); err != nil {
		return fmt.Errorf("export %s to sheets: %w", t.Sheet, err)
	}
	slog.InfoContext(ctx, "Settlements mirrored to sheets", "sheet", t.Sheet, "rows", len(sp.Rows))
	return nil
}

// RegeneratePeriod rewrites every payslip of the period. It runs at startup to
// catch events missed while the worker was down; individual failures are
// logged and counted, not fatal.
func (w *ReportWorker) RegeneratePeriod(ctx context.Context, p core.Period) (written int, err error) {
	sp, err := w.settlements.ListByPeriod(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("list settlements for regeneration: %w", err)
	}
	if len(sp.Rows) == 0 {
		slog.InfoContext(ctx, "No settlements to regenerate", "month", p.Month, "year", p.Year)
		return 0, nil
	}

	sl := applog.NewStructuredLogger(applog.FromContext(ctx))
	failed := 0
	for _, st := range sp.Rows {
		if _, err := w.WritePayslip(ctx, st.ID); err != nil {
			fields := applog.NewFields().WithPeriod(p.Month, p.Year)
			fields[applog.FieldSettlementID] = st.ID
			sl.LogError(ctx, "Failed to regenerate payslip", err, applog.ComponentWorker, applog.OpRender, fields)
			failed++
			continue
		}
		written++
	}

	slog.InfoContext(ctx, "Payslip regeneration completed",
		"month", p.Month, "year", p.Year,
		"total", len(sp.Rows), "written", written, "errors", failed)
	return written, nil
}
