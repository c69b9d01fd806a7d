/*
Package generic provides the domain-agnostic building blocks of the payroll engine.

PURPOSE:
  This package holds the small value types every payroll computation is made
  of: money amounts, calendar dates, pay periods, line-item overrides and the
  error kinds the engine reports. It knows nothing about teachers, closers or
  bonus bands; the compensation and performance packages build on it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: exact decimal amounts (never float64)
  - Rates: percent units, 10 means 10%
  - Override: a line-item value plus where it came from (computed|manual)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, hour count and rate
  2. Auditability: a manual value never silently replaces a computed one
  3. Determinism: no clocks, no randomness, no hidden state

USAGE:
  base := generic.NewMoney(30000)
  commission := generic.PercentOf(generic.NewMoney(50000), generic.NewMoney(10))
  item := generic.Computed(commission).WithManual(generic.NewMoney(4800))

SEE ALSO:
  - period.go: PayPeriod boundaries
  - errors.go: validation error kinds
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact amounts in the payroll currency
// =============================================================================

var hundred = decimal.NewFromInt(100)

// NewMoney returns a whole-unit amount.
func NewMoney(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// PercentOf returns amount × rate / 100.
func PercentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// FloorZero clamps negative values to zero.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// =============================================================================
// OVERRIDE - Value with provenance
// =============================================================================

// Source records whether a value was derived by the engine or typed in by a person.
type Source string

const (
	SourceComputed Source = "computed"
	SourceManual   Source = "manual"
)

// Override is a line-item value together with its provenance.
//
// Computed always holds what the engine derived, so an audit view can show
// both numbers when a person replaced the value.
type Override[T any] struct {
	Value    T      `json:"value"`
	Computed T      `json:"computed"`
	Source   Source `json:"source"`
}

// Computed wraps an engine-derived value.
func Computed[T any](v T) Override[T] {
	return Override[T]{Value: v, Computed: v, Source: SourceComputed}
}

// Manual wraps a value that has no computed counterpart (a pure manual input).
func Manual[T any](v T) Override[T] {
	return Override[T]{Value: v, Source: SourceManual}
}

// WithManual replaces the value and marks it as human-adjusted.
// The computed value is kept.
func (o Override[T]) WithManual(v T) Override[T] {
	o.Value = v
	o.Source = SourceManual
	return o
}

func (o Override[T]) IsManual() bool { return o.Source == SourceManual }
