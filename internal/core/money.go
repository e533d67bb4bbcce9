// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by the
// operator and formatting them for reports.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	onePercent = decimal.New(1, -2)
)

// ParseAmount converts a user-typed amount into a decimal rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Zero is accepted; negative values,
// signs and anything that is not a plain decimal number are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("")       -> 0, ErrValidation
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Validationf("empty amount")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, Validationf("amount %q must be a plain non-negative number", s)
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, Validationf("invalid amount %q", s)
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, Validationf("invalid amount %q", s)
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validationf("invalid amount %q", s)
	}
	return d.Round(2), nil
}

// ParseOptionalAmount is ParseAmount with an empty string meaning def.
func ParseOptionalAmount(s string, def decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseAmount(s)
}

// FormatMoney renders d with exactly two decimals, half-up.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ToCents returns the amount in whole cents, rounded half-up.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func requireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return Validationf("%s must not be negative (got %s)", field, d.String())
	}
	return nil
}
