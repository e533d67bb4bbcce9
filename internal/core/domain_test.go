package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPeriodValidate(t *testing.T) {
	cases := []struct {
		p  Period
		ok bool
	}{
		{Period{Month: 1, Year: 2025}, true},
		{Period{Month: 12, Year: 2099}, true},
		{Period{Month: 0, Year: 2025}, false},
		{Period{Month: 13, Year: 2099}, false},
		{Period{Month: 5, Year: 1999}, false},
	}
	for i, tc := range cases {
		err := tc.p.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestDriverValidate(t *testing.T) {
	good := Driver{DocID: "1712345678", Name: "Ana Pérez", Phone: "0991234567", Rating: 4}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Driver{
		{DocID: "", Name: "x"},
		{DocID: "123", Name: "x"},
		{DocID: "17123456AB", Name: "x"},
		{DocID: "1712345678", Name: ""},
		{DocID: "1712345678", Name: "x", Phone: "099"},
		{DocID: "1712345678", Name: "x", Rating: 6},
	}
	for i, d := range bads {
		if err := d.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestVehicleNormalizeAndValidate(t *testing.T) {
	v := Vehicle{Plate: "  pbc-1234 ", Year: 2019}
	v.Normalize()
	if v.Plate != "PBC-1234" {
		t.Fatalf("plate not normalized: %q", v.Plate)
	}
	if err := v.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Vehicle{}).Validate(); err == nil {
		t.Fatalf("expected error for missing plate")
	}
	if err := (Vehicle{Plate: "X", Year: 1800}).Validate(); err == nil {
		t.Fatalf("expected error for year")
	}
}

func TestStudentValidate(t *testing.T) {
	good := Student{RouteID: 1, StudentNumber: "7", StudentName: "Luis", GuardianEmail: "a@b.ec"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.GuardianEmail = "not-an-email"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected email error")
	}
	bad = good
	bad.StudentName = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected name error")
	}
}

func TestLoanValidate(t *testing.T) {
	l := Loan{DriverID: 1, Principal: decimal.NewFromInt(500), Balance: decimal.NewFromInt(500)}
	if err := l.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	l.Principal = decimal.Zero
	if err := l.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero principal, got %v", err)
	}
}

func TestAdminExpenseValidate(t *testing.T) {
	e := AdminExpense{Month: 3, Year: 2025, OfficeSupplies: decimal.NewFromInt(10), MiscAmount: decimal.Zero}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !e.TotalExpenses().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("TotalExpenses = %s", e.TotalExpenses())
	}
	e.MiscAmount = decimal.NewFromInt(-1)
	if err := e.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
