package indicators

// ADX computes the Average Directional Index with Wilder smoothing. The first
// defined value sits at index 2*window-1: one window seeds the directional
// movement sums, a second seeds the DX average.
func ADX(high, low, close []float64, window int) []float64 {
	n := len(close)
	out := nans(n)
	if window <= 0 || n < 2*window || len(high) != n || len(low) != n {
		return out
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(high[i], low[i], close[i-1])
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	var sTR, sPlus, sMinus float64
	for i := 1; i <= window; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	dx := nans(n)
	dx[window] = dxValue(sPlus, sMinus, sTR)
	for i := window + 1; i < n; i++ {
		sTR = sTR - sTR/float64(window) + tr[i]
		sPlus = sPlus - sPlus/float64(window) + plusDM[i]
		sMinus = sMinus - sMinus/float64(window) + minusDM[i]
		dx[i] = dxValue(sPlus, sMinus, sTR)
	}

	sum := 0.0
	for i := window; i < 2*window; i++ {
		sum += dx[i]
	}
	prev := sum / float64(window)
	out[2*window-1] = prev

	for i := 2 * window; i < n; i++ {
		prev = (prev*float64(window-1) + dx[i]) / float64(window)
		out[i] = prev
	}
	return out
}

func dxValue(sPlus, sMinus, sTR float64) float64 {
	if sTR == 0 {
		return 0
	}
	diPlus := 100 * sPlus / sTR
	diMinus := 100 * sMinus / sTR
	if diPlus+diMinus == 0 {
		return 0
	}
	diff := diPlus - diMinus
	if diff < 0 {
		diff = -diff
	}
	return 100 * diff / (diPlus + diMinus)
}
