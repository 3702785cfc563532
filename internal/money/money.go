// Package money provides the exact decimal amount type used by the pricing
// engine.
//
// Amounts keep full precision through intermediate arithmetic; rounding to the
// currency's minor-unit scale happens only at settlement points, when a value
// is attached to a line item or a summary field. The rounding mode is half-up
// (ties round away from zero) and is the single mode used across the engine.
package money

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// SettlementScale is the number of fractional digits an amount is rounded
	// to when settled (currency minor units).
	SettlementScale = 2

	// MaxScale bounds the fractional precision of intermediate results.
	// Operations that would need more digits fail with ErrPrecisionOverflow
	// instead of silently truncating.
	MaxScale = 12
)

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed from its
	// string representation.
	ErrInvalidAmount = errors.New("invalid monetary amount")
	// ErrPrecisionOverflow is returned when a value requires more fractional
	// digits than MaxScale.
	ErrPrecisionOverflow = errors.New("monetary precision overflow")
)

// Amount is an immutable exact decimal monetary value. The zero value is a
// valid zero amount. Negative amounts represent discounts and refunds.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// Parse constructs an Amount from a decimal string such as "19.99" or "-4.40".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, errors.Wrapf(ErrInvalidAmount, "parse %q", s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for statically known inputs (tests, seed data).
// It panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal wraps a raw decimal, enforcing the MaxScale precision bound.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -MaxScale {
		return Amount{}, errors.Wrapf(ErrPrecisionOverflow, "scale %d exceeds %d", -d.Exponent(), MaxScale)
	}
	return Amount{d: d}, nil
}

// FromMinorUnits constructs an Amount from integer minor units
// (e.g. 1999 -> 19.99 at the default settlement scale).
func FromMinorUnits(n int64) Amount {
	return Amount{d: decimal.New(n, -SettlementScale)}
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// MulInt returns a * n. Integer multiplication is exact: no precision is
// gained or lost, so quantity scaling never introduces rounding drift.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// MulRate returns a * rate at full internal precision. The result is not
// settled; callers round via Settle when the value becomes a line item.
func (a Amount) MulRate(rate decimal.Decimal) (Amount, error) {
	return FromDecimal(a.d.Mul(rate))
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Cmp compares a and b, returning -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b represent the same value, ignoring scale
// ("4.4" equals "4.40").
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Settle rounds the amount to the settlement scale, half-up (ties away from
// zero). This is the only place rounding happens in the engine.
func (a Amount) Settle() Amount {
	return Amount{d: a.d.Round(SettlementScale)}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String returns the amount at its natural precision ("4.4", "19.99").
func (a Amount) String() string {
	return a.d.String()
}

// StringFixed returns the amount rendered at the settlement scale ("4.40").
func (a Amount) StringFixed() string {
	return a.d.StringFixed(SettlementScale)
}
