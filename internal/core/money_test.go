package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"0", "0", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 25.00 ", "25", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestParseOptionalAmount(t *testing.T) {
	def := decimal.NewFromInt(25)
	got, err := ParseOptionalAmount("  ", def)
	if err != nil || !got.Equal(def) {
		t.Fatalf("expected default, got %s (err=%v)", got, err)
	}
	got, err = ParseOptionalAmount("30", def)
	if err != nil || !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30, got %s (err=%v)", got, err)
	}
}

func TestFormatMoneyAndCents(t *testing.T) {
	d := decimal.RequireFromString("10.005")
	if FormatMoney(d) != "10.01" {
		t.Fatalf("FormatMoney = %s", FormatMoney(d))
	}
	if ToCents(d) != 1001 {
		t.Fatalf("ToCents = %d", ToCents(d))
	}
	if FormatMoney(decimal.NewFromInt(-3)) != "-3.00" {
		t.Fatalf("negative format = %s", FormatMoney(decimal.NewFromInt(-3)))
	}
}
