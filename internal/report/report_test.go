package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"transcoop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func sampleSettlements() []core.Settlement {
	return []core.Settlement{
		{DriverName: "Ana Pérez", GrossCollections: decimal.NewFromInt(1000), AdminFee: decimal.NewFromInt(25),
			Renta1Pct: decimal.NewFromInt(10), TotalDeductions: decimal.NewFromInt(110), NetPayable: decimal.NewFromInt(890)},
		{DriverName: "Luis Mora", GrossCollections: decimal.RequireFromString("500.5"), AdminFee: decimal.NewFromInt(25),
			CheckNumber: "88"},
	}
}

func TestMonthName(t *testing.T) {
	if MonthName(1) != "Enero" || MonthName(12) != "Diciembre" || MonthName(13) != "13" {
		t.Fatalf("unexpected month names")
	}
}

func TestExcelExport(t *testing.T) {
	table := SettlementsTable(core.Period{Month: 3, Year: 2025}, sampleSettlements())
	var buf bytes.Buffer
	if err := (ExcelExporter{}).Export(&buf, table); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet != "Flujo Marzo 2025" {
		t.Fatalf("sheet name = %q", sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "CONDUCTOR" || rows[1][0] != "Ana Pérez" {
		t.Fatalf("unexpected first column %q / %q", rows[0][0], rows[1][0])
	}
	raw, err := f.GetCellValue(sheet, "B3", excelize.Options{RawCellValue: true})
	if err != nil || raw != "500.5" {
		t.Fatalf("B3 = %q (%v)", raw, err)
	}
}

func TestSheetNameSanitized(t *testing.T) {
	got := sheetName("Estudiantes Ruta: Norte/Sur [2025] con nombre muy largo")
	if strings.ContainsAny(got, ":/[]") || len([]rune(got)) > 31 {
		t.Fatalf("bad sheet name %q", got)
	}
	if sheetName("  ") != "Sheet1" {
		t.Fatalf("empty name should fall back")
	}
}

func fixedPDF() PDF {
	return PDF{Company: "COMPAÑÍA COLORADO EXPRESS S.A.", Now: func() time.Time {
		return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestPayslipPDF(t *testing.T) {
	s := sampleSettlements()[0]
	s.Month, s.Year, s.CheckNumber = 3, 2025, "1234"
	loan := core.Loan{Balance: decimal.NewFromInt(300)}

	var buf bytes.Buffer
	err := fixedPDF().Payslip(&buf, core.Payslip{Settlement: s, Driver: core.Driver{Name: "Ana Pérez"}, ActiveLoan: &loan})
	if err != nil {
		t.Fatalf("payslip: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestAdminExpensePDF(t *testing.T) {
	r := core.AdminExpenseReport{
		Expense: core.AdminExpense{Month: 4, Year: 2025, OfficeSupplies: decimal.NewFromInt(40),
			MiscAmount: decimal.NewFromInt(10), MiscDescription: "toner", CheckNumber: "77"},
		TotalFees:         decimal.NewFromInt(50),
		TotalExpenses:     decimal.NewFromInt(50),
		DisposableBalance: decimal.Zero,
	}
	var buf bytes.Buffer
	if err := fixedPDF().AdminExpense(&buf, r); err != nil {
		t.Fatalf("admin expense: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestSheetValues(t *testing.T) {
	vals := sheetValues(LoansTable([]core.Loan{{DriverName: "Ana", Principal: decimal.NewFromInt(500),
		Balance: decimal.RequireFromString("120.5"), Status: core.LoanActive}}))
	if len(vals) != 2 || vals[0][0] != "CONDUCTOR" {
		t.Fatalf("unexpected header %v", vals)
	}
	if vals[1][1] != "500.00" || vals[1][2] != "120.50" || vals[1][4] != "ACTIVE" {
		t.Fatalf("unexpected row %v", vals[1])
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := LoadCredentials("", ""); err == nil {
		t.Fatal("expected error without credentials")
	}
	b, err := LoadCredentials(`{"type":"service_account"}`, "/does/not/matter")
	if err != nil || !strings.Contains(string(b), "service_account") {
		t.Fatalf("inline JSON should win: %s (%v)", b, err)
	}
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"k":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err = LoadCredentials("", path)
	if err != nil || string(b) != `{"k":1}` {
		t.Fatalf("file credentials: %s (%v)", b, err)
	}
}

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	lastBody string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, r.Method)
	if r.Method == http.MethodPut {
		f.lastBody = string(body)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		json.NewEncoder(w).Encode(map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"title": "Existing"}},
		}})
		return
	}
	w.Write([]byte(`{}`))
}

func TestSheetsExport(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	exp := newSheetsExporterWithService(svc, "sheet-id")

	table := DriversTable([]core.Driver{{DocID: "1712345678", Name: "Ana"}})
	if err := exp.Export(context.Background(), table); err != nil {
		t.Fatalf("export: %v", err)
	}

	// GET spreadsheet, POST addSheet, POST clear, PUT values.
	want := []string{http.MethodGet, http.MethodPost, http.MethodPost, http.MethodPut}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
	if !strings.Contains(fake.lastBody, "1712345678") || !strings.Contains(fake.lastBody, "DOCUMENTO") {
		t.Fatalf("unexpected body %s", fake.lastBody)
	}
}
