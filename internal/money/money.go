// Package money provides exact fixed-scale decimal arithmetic for all
// monetary amounts. Amounts are never represented as binary floating point.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every amount is rounded to.
const Scale = 2

// ErrNegativeResult is returned when an operation would produce a negative
// amount in a context where totals and discounts must stay non-negative.
// It indicates an internal invariant violation, not bad user input.
var ErrNegativeResult = errors.New("money: operation produced a negative result")

var hundred = decimal.NewFromInt(100)

// Money is an exact decimal amount with two fractional digits.
// The zero value is a valid zero amount.
type Money struct {
	amount decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// FromDecimal wraps a raw decimal, rounding it to the fixed scale.
func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(Scale)}
}

// FromString parses a decimal string such as "19.99".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parsing money %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustFromString is FromString that panics on malformed input.
// Intended for constants and tests.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the underlying decimal value, for persistence mapping.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other, failing with ErrNegativeResult when the result
// would be negative. Discount and total fields never go negative.
func (m Money) Sub(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: result}, nil
}

// MulInt returns m multiplied by a whole quantity.
func (m Money) MulInt(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

// PercentOf returns rate percent of m, rounded half-up to the fixed scale.
// Rate is expressed on a 0-100 scale.
func (m Money) PercentOf(rate Money) Money {
	return Money{amount: m.amount.Mul(rate.amount).Div(hundred).Round(Scale)}
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.amount.LessThan(b.amount) {
		return a
	}
	return b
}

// Cmp compares m and other, returning -1, 0 or 1.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is less than zero. Negative
// amounts only ever arrive from outside input; internal arithmetic
// rejects them via Sub.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.amount.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal representations.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = FromDecimal(d)
	return nil
}
