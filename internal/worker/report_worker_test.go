package worker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"transcoop/internal/amqp"
	"transcoop/internal/core"
	"transcoop/internal/report"
	"transcoop/internal/services"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

type fakeSheets struct {
	mu     sync.Mutex
	tables []report.Table
	err    error
}

func (f *fakeSheets) Export(_ context.Context, t report.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, t)
	return f.err
}

type fixture struct {
	store       *storage.Store
	settlements *services.SettlementService
	loans       *services.LoanService
	driver      core.Driver
	dir         string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	d, err := services.NewDriverService(store).Create(ctx, core.Driver{DocID: "1712345678", Name: "Ana"})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	return fixture{
		store:       store,
		settlements: services.NewSettlementService(store, nil, decimal.NewFromInt(25)),
		loans:       services.NewLoanService(store, nil),
		driver:      d,
		dir:         t.TempDir(),
	}
}

func (f fixture) save(t *testing.T, month int) core.Settlement {
	t.Helper()
	st, err := f.settlements.Save(context.Background(), core.SettlementInput{
		DriverID: f.driver.ID, Month: month, Year: 2025, GrossCollections: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("save settlement: %v", err)
	}
	return st
}

func event(t *testing.T, eventType string, payload any) *amqp.Event {
	t.Helper()
	e, err := amqp.NewEvent(eventType, payload)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return e
}

func fixedPDF() report.PDF {
	return report.PDF{Company: "Test Co", Now: func() time.Time { return time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC) }}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("%s is not a PDF", path)
	}
}

func TestSettlementSavedWritesPayslipAndMirrors(t *testing.T) {
	f := newFixture(t)
	st := f.save(t, 3)
	sheets := &fakeSheets{}
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, sheets)

	e := event(t, amqp.EventSettlementSaved, amqp.SettlementSaved{
		SettlementID: st.ID, DriverID: f.driver.ID, Month: 3, Year: 2025,
	})
	if err := w.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	path := w.PayslipPath(core.Period{Month: 3, Year: 2025}, st.ID)
	if filepath.Base(filepath.Dir(path)) != "2025-03" {
		t.Fatalf("unexpected path %s", path)
	}
	assertPDF(t, path)

	if len(sheets.tables) != 1 || len(sheets.tables[0].Rows) != 1 {
		t.Fatalf("expected one mirrored table with one row, got %+v", sheets.tables)
	}
}

func TestSheetsFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	st := f.save(t, 3)
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, &fakeSheets{err: errors.New("quota")})

	e := event(t, amqp.EventSettlementSaved, amqp.SettlementSaved{SettlementID: st.ID, Month: 3, Year: 2025})
	if err := w.HandleEvent(context.Background(), e); err == nil {
		t.Fatalf("expected export error for redelivery")
	}
}

func TestLoanPaymentRefreshesLatestPayslip(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1)
	latest := f.save(t, 2)
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, nil)

	e := event(t, amqp.EventLoanPaymentApplied, amqp.LoanPaymentApplied{
		LoanID: 1, DriverID: f.driver.ID, Balance: "100.00", Status: string(core.LoanActive),
	})
	if err := w.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	assertPDF(t, w.PayslipPath(core.Period{Month: 2, Year: 2025}, latest.ID))

	if _, err := os.Stat(filepath.Join(f.dir, "payslips", "2025-01")); !os.IsNotExist(err) {
		t.Fatalf("older period should not be rendered")
	}
}

func TestLoanPaymentWithoutSettlementIsNoop(t *testing.T) {
	f := newFixture(t)
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, nil)

	e := event(t, amqp.EventLoanPaymentApplied, amqp.LoanPaymentApplied{DriverID: f.driver.ID})
	if err := w.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if entries, _ := os.ReadDir(f.dir); len(entries) != 0 {
		t.Fatalf("nothing should be written, got %d entries", len(entries))
	}
}

func TestMissingSettlementIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, nil)

	e := event(t, amqp.EventSettlementSaved, amqp.SettlementSaved{SettlementID: 404, Month: 3, Year: 2025})
	if err := w.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("missing record should not be redelivered: %v", err)
	}
}

func TestRegeneratePeriod(t *testing.T) {
	f := newFixture(t)
	st := f.save(t, 3)
	w := NewReportWorker(f.settlements, fixedPDF(), f.dir, nil)

	n, err := w.RegeneratePeriod(context.Background(), core.Period{Month: 3, Year: 2025})
	if err != nil || n != 1 {
		t.Fatalf("RegeneratePeriod = %d, %v", n, err)
	}
	assertPDF(t, w.PayslipPath(core.Period{Month: 3, Year: 2025}, st.ID))

	n, err = w.RegeneratePeriod(context.Background(), core.Period{Month: 4, Year: 2025})
	if err != nil || n != 0 {
		t.Fatalf("empty period = %d, %v", n, err)
	}
}
