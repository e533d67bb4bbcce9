package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"transcoop/internal/core"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDriver(t *testing.T, s *Store, doc, name string) core.Driver {
	t.Helper()
	d, err := s.CreateDriver(context.Background(), core.Driver{DocID: doc, Name: name})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	return d
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestDriverUniqueDocID(t *testing.T) {
	s := openTestStore(t)
	mustDriver(t, s, "1712345678", "Ana")
	_, err := s.CreateDriver(context.Background(), core.Driver{DocID: "1712345678", Name: "Otro"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for duplicate doc id, got %v", err)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.GetDriver(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteStudent(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSettlementUpsertKeepsIDAndCheck(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := mustDriver(t, s, "1712345678", "Ana")

	row := core.Settlement{DriverID: &d.ID, Month: 3, Year: 2025,
		GrossCollections: decimal.NewFromInt(1000), AdminFee: decimal.NewFromInt(25)}
	first, err := s.UpsertSettlement(ctx, row)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetCheckNumber(ctx, first.ID, "00123"); err != nil {
		t.Fatalf("set check: %v", err)
	}

	row.GrossCollections = decimal.NewFromInt(1200)
	second, err := s.UpsertSettlement(ctx, row)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID || second.CheckNumber != "00123" {
		t.Fatalf("expected same id and kept check, got id=%d check=%q", second.ID, second.CheckNumber)
	}

	list, err := s.ListSettlements(ctx, core.Period{Month: 3, Year: 2025})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].GrossCollections.Equal(decimal.NewFromInt(1200)) || list[0].DriverName != "Ana" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestSumAdminFees(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := core.Period{Month: 5, Year: 2025}

	total, err := s.SumAdminFees(ctx, p)
	if err != nil || !total.IsZero() {
		t.Fatalf("expected zero for empty period, got %s (%v)", total, err)
	}

	for i, doc := range []string{"1700000001", "1700000002"} {
		d := mustDriver(t, s, doc, doc)
		fee := decimal.RequireFromString([]string{"25.00", "30.50"}[i])
		if _, err := s.UpsertSettlement(ctx, core.Settlement{DriverID: &d.ID, Month: 5, Year: 2025, AdminFee: fee}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	total, err = s.SumAdminFees(ctx, p)
	if err != nil || !total.Equal(decimal.RequireFromString("55.50")) {
		t.Fatalf("expected 55.50, got %s (%v)", total, err)
	}
}

func TestDeleteDriverPolicy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := mustDriver(t, s, "1712345678", "Ana")

	r, err := s.CreateRoute(ctx, core.Route{Name: "Norte", DriverID: &d.ID})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	st, err := s.UpsertSettlement(ctx, core.Settlement{DriverID: &d.ID, Month: 1, Year: 2025})
	if err != nil {
		t.Fatalf("upsert settlement: %v", err)
	}
	loan, err := s.CreateLoan(ctx, core.Loan{DriverID: d.ID, Principal: decimal.NewFromInt(100), Balance: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if err := s.DeleteDriver(ctx, d.ID); !errors.Is(err, core.ErrReferentialConflict) {
		t.Fatalf("expected conflict while loans exist, got %v", err)
	}
	if err := s.DeleteLoan(ctx, loan.ID); err != nil {
		t.Fatalf("delete loan: %v", err)
	}
	if err := s.DeleteDriver(ctx, d.ID); err != nil {
		t.Fatalf("delete driver: %v", err)
	}

	gotRoute, err := s.GetRoute(ctx, r.ID)
	if err != nil || gotRoute.DriverID != nil {
		t.Fatalf("route driver not cleared: %+v (%v)", gotRoute, err)
	}
	gotSettlement, err := s.GetSettlement(ctx, st.ID)
	if err != nil || gotSettlement.DriverID != nil {
		t.Fatalf("settlement driver not cleared: %+v (%v)", gotSettlement, err)
	}
}

func TestDeleteVehicleBlockedByRoute(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v, err := s.CreateVehicle(ctx, core.Vehicle{Plate: "PBC-1234"})
	if err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	r, err := s.CreateRoute(ctx, core.Route{Name: "Sur", VehicleID: &v.ID})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	if err := s.DeleteVehicle(ctx, v.ID); !errors.Is(err, core.ErrReferentialConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	r.VehicleID = nil
	if err := s.UpdateRoute(ctx, r); err != nil {
		t.Fatalf("update route: %v", err)
	}
	if err := s.DeleteVehicle(ctx, v.ID); err != nil {
		t.Fatalf("delete vehicle: %v", err)
	}
}

func TestDeleteRouteCascadesStudents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r, err := s.CreateRoute(ctx, core.Route{Name: "Centro"})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	for _, name := range []string{"Luis", "Eva"} {
		if _, err := s.CreateStudent(ctx, core.Student{RouteID: r.ID, StudentNumber: "1", StudentName: name}); err != nil {
			t.Fatalf("create student: %v", err)
		}
	}
	n, err := s.RecountStudents(ctx, r.ID)
	if err != nil || n != 2 {
		t.Fatalf("recount = %d (%v)", n, err)
	}

	if err := s.DeleteRoute(ctx, r.ID); err != nil {
		t.Fatalf("delete route: %v", err)
	}
	left, err := s.ListStudents(ctx, r.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("students left behind: %d (%v)", len(left), err)
	}
}

func TestDeleteRouteBlockedByDriver(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r, err := s.CreateRoute(ctx, core.Route{Name: "Valle"})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	if _, err := s.CreateDriver(ctx, core.Driver{DocID: "1712345678", Name: "Ana", RouteID: &r.ID}); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	if err := s.DeleteRoute(ctx, r.ID); !errors.Is(err, core.ErrReferentialConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestActiveLoanPicksNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := mustDriver(t, s, "1712345678", "Ana")

	if _, found, err := s.ActiveLoan(ctx, d.ID); err != nil || found {
		t.Fatalf("expected no active loan, found=%v err=%v", found, err)
	}

	older, _ := s.CreateLoan(ctx, core.Loan{DriverID: d.ID, Principal: decimal.NewFromInt(100), Balance: decimal.NewFromInt(100)})
	newer, _ := s.CreateLoan(ctx, core.Loan{DriverID: d.ID, Principal: decimal.NewFromInt(200), Balance: decimal.NewFromInt(200)})

	got, found, err := s.ActiveLoan(ctx, d.ID)
	if err != nil || !found || got.ID != newer.ID {
		t.Fatalf("expected newest loan %d, got %+v found=%v err=%v", newer.ID, got, found, err)
	}

	if err := s.SetLoanBalance(ctx, newer.ID, decimal.Zero); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	got, found, err = s.ActiveLoan(ctx, d.ID)
	if err != nil || !found || got.ID != older.ID {
		t.Fatalf("expected older loan %d, got %+v", older.ID, got)
	}
	paid, err := s.GetLoan(ctx, newer.ID)
	if err != nil || paid.Status != core.LoanPaid {
		t.Fatalf("expected PAID, got %+v (%v)", paid, err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(q *Queries) error {
		if _, err := q.CreateVehicle(ctx, core.Vehicle{Plate: "ABC-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	list, err := s.ListVehicles(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected rollback, got %d vehicles (%v)", len(list), err)
	}
}

func TestAdminExpenseUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := core.Period{Month: 2, Year: 2025}

	e, found, err := s.GetAdminExpense(ctx, p)
	if err != nil || found || e.Month != 2 {
		t.Fatalf("expected empty record, got %+v found=%v err=%v", e, found, err)
	}

	rec := core.AdminExpense{Month: 2, Year: 2025, TotalFeesCollected: decimal.NewFromInt(50),
		OfficeSupplies: decimal.NewFromInt(10), MiscAmount: decimal.Zero}
	first, err := s.UpsertAdminExpense(ctx, rec)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec.MiscAmount = decimal.NewFromInt(5)
	second, err := s.UpsertAdminExpense(ctx, rec)
	if err != nil || second.ID != first.ID {
		t.Fatalf("expected same id, got %d vs %d (%v)", second.ID, first.ID, err)
	}
	list, err := s.ListAdminExpenses(ctx)
	if err != nil || len(list) != 1 || !list[0].MiscAmount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}
}

func TestLatestSettlement(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d := mustDriver(t, s, "1712345678", "Ana")

	if _, found, err := s.LatestSettlement(ctx, d.ID); err != nil || found {
		t.Fatalf("expected none, got found=%v err=%v", found, err)
	}

	for _, p := range []core.Period{{Month: 12, Year: 2024}, {Month: 2, Year: 2025}, {Month: 11, Year: 2024}} {
		row := core.Settlement{DriverID: &d.ID, Month: p.Month, Year: p.Year}
		if _, err := s.UpsertSettlement(ctx, row); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, found, err := s.LatestSettlement(ctx, d.ID)
	if err != nil || !found {
		t.Fatalf("latest: found=%v err=%v", found, err)
	}
	if got.Month != 2 || got.Year != 2025 {
		t.Fatalf("latest = %d/%d, want 2/2025", got.Month, got.Year)
	}
}
