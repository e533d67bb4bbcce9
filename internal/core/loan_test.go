package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyPayment(t *testing.T) {
	cases := []struct {
		name    string
		balance string
		amount  string
		want    string
		status  LoanStatus
	}{
		{"partial", "500", "200", "300", LoanActive},
		{"exact", "300", "300", "0", LoanPaid},
		{"overpay clamps", "500", "700", "0", LoanPaid},
		{"cents", "10.50", "0.25", "10.25", LoanActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, st, err := ApplyPayment(dec(tc.balance), dec(tc.amount))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tc.want)) || st != tc.status {
				t.Fatalf("got %s %s, want %s %s", got, st, tc.want, tc.status)
			}
		})
	}
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	for _, amt := range []string{"0", "-5"} {
		bal, _, err := ApplyPayment(dec("100"), dec(amt))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("amount %s expected validation error, got %v", amt, err)
		}
		if !bal.Equal(dec("100")) {
			t.Fatalf("balance changed on rejected payment: %s", bal)
		}
	}
}

func TestPaymentSequence(t *testing.T) {
	bal := dec("1000")
	payments := []string{"100", "250.50", "0.50", "300", "400"}
	for _, p := range payments {
		next, st, err := ApplyPayment(bal, dec(p))
		if err != nil {
			t.Fatalf("payment %s: %v", p, err)
		}
		if next.IsNegative() || next.GreaterThan(bal) {
			t.Fatalf("balance out of range after %s: %s", p, next)
		}
		if (st == LoanPaid) != next.IsZero() {
			t.Fatalf("status %s inconsistent with balance %s", st, next)
		}
		bal = next
	}
	if !bal.IsZero() {
		t.Fatalf("expected paid off, got %s", bal)
	}
}

func TestNewLoanAndRecompute(t *testing.T) {
	l, err := NewLoan(3, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != LoanActive || !l.Balance.Equal(l.Principal) {
		t.Fatalf("unexpected loan %+v", l)
	}
	if _, err := NewLoan(3, decimal.Zero); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	l.Balance = decimal.Zero
	l.Recompute()
	if l.Status != LoanPaid {
		t.Fatalf("expected PAID, got %s", l.Status)
	}
	l.Balance = decimal.NewFromInt(100)
	l.Recompute()
	if l.Status != LoanActive {
		t.Fatalf("expected ACTIVE, got %s", l.Status)
	}
}
