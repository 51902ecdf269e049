package stats

import "math"

// Estimate is a statistic that may be undefined for a degenerate sample.
// The zero value is Value(0).
type Estimate struct {
	value     float64
	undefined bool
}

// Value wraps a defined statistic.
func Value(v float64) Estimate {
	return Estimate{value: v}
}

// Undefined marks a statistic whose sample is too small.
func Undefined() Estimate {
	return Estimate{undefined: true}
}

// Defined reports whether the estimate carries a value.
func (e Estimate) Defined() bool {
	return !e.undefined
}

// Get returns the value and whether it is defined.
func (e Estimate) Get() (float64, bool) {
	return e.value, !e.undefined
}

// Float64 resolves Undefined to +Inf, the numeric sentinel the circuit uses.
func (e Estimate) Float64() float64 {
	if e.undefined {
		return math.Inf(1)
	}
	return e.value
}
