// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents inside the program. Conversions to and
// from decimal text and floating point go through shopspring/decimal so that
// rounding is explicit (half away from zero, which is half-up for the
// non-negative amounts this domain deals with).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount keeps cents inside int64 with room for summing.
var maxAmount = decimal.New(1, 15)

// ParseAmount converts a decimal string to Money rounded to the cent.
//
// It accepts a dot (12.34) or, when no dot is present, a comma (12,34) as
// decimal separator, and scientific notation as written by spreadsheet
// exports. Sign is preserved; positivity is a validation concern.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
//	ParseAmount("1e2")    -> 10000 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// MoneyFromFloat converts a stored REAL amount to cents.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

// Float64 returns the amount in currency units, as persisted in the REAL column.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "15.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Average divides m by n, rounding half-up to the cent. n <= 0 yields zero.
func (m Money) Average(n int64) Money {
	if n <= 0 {
		return Money{}
	}
	avg := decimal.New(m.Cents, 0).Div(decimal.New(n, 0)).Round(0)
	return Money{Cents: avg.IntPart()}
}
