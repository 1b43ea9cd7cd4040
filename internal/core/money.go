// Package core holds the ledger's domain types and validation.
//
// This file contains helpers for parsing user-entered amounts and rendering
// them for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to a positive amount.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs,
// exponents, blanks and zero are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r):
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 || s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
