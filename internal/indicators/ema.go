package indicators

// EMA computes the exponential moving average. The first defined value, at
// index window-1, is seeded with the simple average of the first window bars.
func EMA(values []float64, window int) []float64 {
	out := nans(len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += values[i]
	}
	prev := sum / float64(window)
	out[window-1] = prev

	k := 2.0 / (float64(window) + 1)
	for i := window; i < len(values); i++ {
		prev += (values[i] - prev) * k
		out[i] = prev
	}
	return out
}
