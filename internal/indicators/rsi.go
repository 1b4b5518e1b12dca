package indicators

// RSI computes the Relative Strength Index with Wilder smoothing. Values are
// defined from index window onward (the first window bars seed the averages).
func RSI(values []float64, window int) []float64 {
	out := nans(len(values))
	if window <= 0 || len(values) <= window {
		return out
	}

	gain, loss := 0.0, 0.0
	for i := 1; i <= window; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(window)
	avgLoss := loss / float64(window)
	out[window] = rsiValue(avgGain, avgLoss)

	for i := window + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		g, l := 0.0, 0.0
		if change > 0 {
			g = change
		} else {
			l = -change
		}
		avgGain = (avgGain*float64(window-1) + g) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + l) / float64(window)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat series: neither overbought nor oversold
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
