package indicators

import "math"

// ATR computes the Average True Range with Wilder smoothing. Defined from
// index window onward; true range needs a previous close, so the first bar
// never contributes.
func ATR(high, low, close []float64, window int) []float64 {
	n := len(close)
	out := nans(n)
	if window <= 0 || n <= window || len(high) != n || len(low) != n {
		return out
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(high[i], low[i], close[i-1])
	}

	sum := 0.0
	for i := 1; i <= window; i++ {
		sum += tr[i]
	}
	prev := sum / float64(window)
	out[window] = prev

	for i := window + 1; i < n; i++ {
		prev = (prev*float64(window-1) + tr[i]) / float64(window)
		out[i] = prev
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
