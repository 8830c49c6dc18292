// Package points converts currency amounts into loyalty points.
package points

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultRate is the number of currency units that earn one point.
var DefaultRate = decimal.NewFromInt(10)

// ErrInvalidRate is returned when the configured exchange rate is not positive.
var ErrInvalidRate = errors.New("points: exchange rate must be greater than 0")

// ErrAmountTooLarge is returned when an amount earns more points than an int64 holds.
var ErrAmountTooLarge = errors.New("points: amount too large")

var maxPoints = decimal.NewFromInt(math.MaxInt64)

// Calculator maps amounts to points at a fixed exchange rate.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator creates a Calculator for rate currency units per point.
func NewCalculator(rate decimal.Decimal) (Calculator, error) {
	if !rate.IsPositive() {
		return Calculator{}, ErrInvalidRate
	}
	return Calculator{rate: rate}, nil
}

// Rate returns the configured exchange rate.
func (c Calculator) Rate() decimal.Decimal {
	if c.rate.IsZero() {
		return DefaultRate
	}
	return c.rate
}

// FromAmount returns floor(amount / rate). Non-positive amounts earn nothing.
func (c Calculator) FromAmount(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, nil
	}
	pts := amount.Div(c.Rate()).Floor()
	if pts.GreaterThan(maxPoints) {
		return 0, ErrAmountTooLarge
	}
	return pts.IntPart(), nil
}
