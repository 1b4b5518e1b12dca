package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestEMAUndefinedBeforeWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := EMA(values, 4)

	for i := 0; i < 3; i++ {
		if IsValid(out[i]) {
			t.Fatalf("EMA[%d]=%v, expected NaN before window fills", i, out[i])
		}
	}
	// Seed is the simple average of the first 4 values.
	if !almostEqual(out[3], 2.5, 1e-9) {
		t.Fatalf("EMA seed=%v, expected 2.5", out[3])
	}
	for i := 4; i < len(out); i++ {
		if !IsValid(out[i]) {
			t.Fatalf("EMA[%d] undefined after window filled", i)
		}
	}
}

func TestEMAConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 42
	}
	out := EMA(values, 20)
	if !almostEqual(Last(out), 42, 1e-9) {
		t.Fatalf("EMA of constant series=%v, expected 42", Last(out))
	}
}

func TestEMAShortSeriesAllUndefined(t *testing.T) {
	out := EMA([]float64{1, 2, 3}, 10)
	for i, v := range out {
		if IsValid(v) {
			t.Fatalf("EMA[%d]=%v defined on insufficient history", i, v)
		}
	}
}

func TestRSIMonotonicSeries(t *testing.T) {
	rising := make([]float64, 40)
	falling := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	up := Last(RSI(rising, 14))
	if !almostEqual(up, 100, 1e-9) {
		t.Fatalf("RSI of strictly rising series=%v, expected 100", up)
	}
	down := Last(RSI(falling, 14))
	if !almostEqual(down, 0, 1e-9) {
		t.Fatalf("RSI of strictly falling series=%v, expected 0", down)
	}
}

func TestRSIUndefinedBeforeWindow(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	out := RSI(values, 14)
	for i := 0; i < 14; i++ {
		if IsValid(out[i]) {
			t.Fatalf("RSI[%d] defined before window+1 samples", i)
		}
	}
	if !IsValid(out[14]) {
		t.Fatalf("RSI[14] should be the first defined value")
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := range high {
		high[i] = 101
		low[i] = 100
		close[i] = 100.5
	}

	out := ATR(high, low, close, 14)
	for i := 0; i < 14; i++ {
		if IsValid(out[i]) {
			t.Fatalf("ATR[%d] defined before window fills", i)
		}
	}
	if !almostEqual(Last(out), 1, 1e-9) {
		t.Fatalf("ATR of constant 1-point range=%v, expected 1", Last(out))
	}
}

func TestADXStrongTrend(t *testing.T) {
	n := 80
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := range high {
		base := 100 + float64(i)*2
		high[i] = base + 1
		low[i] = base - 1
		close[i] = base
	}

	out := ADX(high, low, close, 14)
	for i := 0; i < 27; i++ {
		if IsValid(out[i]) {
			t.Fatalf("ADX[%d] defined before 2*window-1", i)
		}
	}
	// A perfectly one-directional series drives DX, and therefore ADX, to 100.
	if !almostEqual(Last(out), 100, 1e-6) {
		t.Fatalf("ADX of perfect uptrend=%v, expected 100", Last(out))
	}
}

func TestADXInsufficientHistory(t *testing.T) {
	high := []float64{1, 2, 3}
	low := []float64{0, 1, 2}
	close := []float64{0.5, 1.5, 2.5}
	out := ADX(high, low, close, 14)
	for i, v := range out {
		if IsValid(v) {
			t.Fatalf("ADX[%d]=%v defined on insufficient history", i, v)
		}
	}
}
