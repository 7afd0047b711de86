// Package money converts between the 2-decimal amounts used at the API
// boundary and the integer minor units (cents) used everywhere inside the
// ledger. All balance arithmetic happens on minor units; decimals exist only
// at the edges.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount indicates an amount that cannot enter the ledger: zero,
// negative, more precise than a cent, or too large for minor units.
var ErrInvalidAmount = errors.New("amount must be a positive value with at most 2 decimal places")

var centFactor = decimal.NewFromInt(100)

// MinorUnits converts a decimal amount to integer minor units (cents).
// Amounts must be strictly positive and carry at most two decimal places.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		// Sub-cent precision would be silently lost
		return 0, ErrInvalidAmount
	}

	cents := amount.Mul(centFactor)
	if !cents.IsInteger() {
		return 0, ErrInvalidAmount
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}

	return cents.IntPart(), nil
}

// FromMinorUnits converts integer minor units back to a decimal amount
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Div(centFactor)
}

// Format renders minor units as a 2-decimal string, e.g. 1050 -> "10.50"
func Format(units int64) string {
	return FromMinorUnits(units).StringFixed(2)
}
