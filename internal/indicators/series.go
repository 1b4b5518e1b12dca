// Package indicators computes price-series indicators aligned 1:1 with their
// input: out[i] is the indicator value at bar i, math.NaN() where the window
// has not filled yet. Callers must check IsValid before acting on a value —
// an undefined indicator is never zero.
package indicators

import "math"

// IsValid reports whether an indicator value is defined.
func IsValid(v float64) bool {
	return !math.IsNaN(v)
}

// Last returns the value aligned to the most recent bar, NaN for empty input.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
