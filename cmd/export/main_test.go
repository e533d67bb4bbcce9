package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"transcoop/internal/config"
	"transcoop/internal/core"
	"transcoop/internal/services"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		SQLiteDBPath:    filepath.Join(dir, "transcoop.db"),
		DefaultAdminFee: "25.00",
		CompanyName:     "Test Co",
		ExportDir:       filepath.Join(dir, "exports"),
		LogLevel:        "info",
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		opts options
	}{
		{"bad month", options{period: core.Period{Month: 13, Year: 2025}}},
		{"bad year", options{period: core.Period{Month: 1, Year: 1999}}},
		{"sheets without spreadsheet", options{period: core.Period{Month: 1, Year: 2025}, toSheets: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			err := run(context.Background(), cfg, tt.opts)
			if !errors.Is(err, errUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if _, statErr := os.Stat(cfg.SQLiteDBPath); !os.IsNotExist(statErr) {
				t.Fatalf("store should not be opened on usage errors")
			}
		})
	}
}

func TestRunWritesPeriod(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.SQLiteDBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	d, err := services.NewDriverService(store).Create(ctx, core.Driver{DocID: "1712345678", Name: "Ana"})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	st, err := services.NewSettlementService(store, nil, cfg.AdminFee()).Save(ctx, core.SettlementInput{
		DriverID: d.ID, Month: 3, Year: 2025, GrossCollections: decimal.RequireFromString("1000"),
	})
	if err != nil {
		t.Fatalf("save settlement: %v", err)
	}
	store.Close()

	out := t.TempDir()
	if err := run(ctx, cfg, options{period: core.Period{Month: 3, Year: 2025}, outDir: out}); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"flujo.xlsx", "gastos_admin.pdf", "rol_pagos_" + strconv.FormatInt(st.ID, 10) + ".pdf"} {
		info, err := os.Stat(filepath.Join(out, "2025-03", name))
		if err != nil || info.Size() == 0 {
			t.Fatalf("%s missing or empty: %v", name, err)
		}
	}
}

func TestRunReportsStoreFailure(t *testing.T) {
	cfg := testConfig(t)
	// A directory where the database file should be makes the open fail.
	if err := os.MkdirAll(cfg.SQLiteDBPath, 0o755); err != nil {
		t.Fatal(err)
	}
	err := run(context.Background(), cfg, options{period: core.Period{Month: 3, Year: 2025}, outDir: t.TempDir()})
	if err == nil || errors.Is(err, errUsage) {
		t.Fatalf("expected store error, got %v", err)
	}
}
