// Package strategy turns multi-timeframe candle history into directional
// entry signals. Evaluation is a pure function of the readings: identical
// candles always produce the identical decision.
package strategy

import (
	"errors"
	"fmt"

	"trend-engine/internal/indicators"
	"trend-engine/pkg/venue"
)

// Trade direction, used across the engine.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// ErrInsufficientHistory marks a series too short for the indicator windows.
var ErrInsufficientHistory = errors.New("insufficient candle history")

// Params are the strategy windows and thresholds.
type Params struct {
	BiasEMAWindow   int // higher-timeframe moving average (macro bias)
	TrendFastWindow int // mid-timeframe fast moving average
	TrendSlowWindow int // mid-timeframe slow moving average
	RSIWindow       int
	ADXWindow       int
	ATRWindow       int

	RSILongMax   float64 // long only while momentum is below this
	RSIShortMin  float64 // short only while momentum is above this
	ADXThreshold float64 // minimum trend strength for any entry

	MinBiasBars  int
	MinTrendBars int
	MinEntryBars int
}

// DefaultParams returns the production parameter set.
func DefaultParams() Params {
	return Params{
		BiasEMAWindow:   200,
		TrendFastWindow: 50,
		TrendSlowWindow: 200,
		RSIWindow:       14,
		ADXWindow:       14,
		ATRWindow:       14,
		RSILongMax:      60,
		RSIShortMin:     40,
		ADXThreshold:    20,
		MinBiasBars:     210,
		MinTrendBars:    210,
		MinEntryBars:    50,
	}
}

// Readings are indicator values aligned to the latest bar of each timeframe.
type Readings struct {
	BiasClose float64
	BiasEMA   float64

	TrendFast float64
	TrendSlow float64

	EntryClose float64
	RSI        float64
	ADX        float64
	ATR        float64
}

// Signal is an entry decision, consumed within one engine cycle.
type Signal struct {
	Instrument string
	Side       string
	Price      float64 // reference price at signal time
	ATR        float64 // volatility used for sizing
}

// ComputeReadings derives the latest aligned readings from three candle
// series. It rejects short history outright: an indicator is undefined for
// its warmup period and must never be treated as zero.
func ComputeReadings(bias, trend, entry []venue.Candle, p Params) (Readings, error) {
	if len(bias) < p.MinBiasBars {
		return Readings{}, fmt.Errorf("bias timeframe has %d bars, need %d: %w", len(bias), p.MinBiasBars, ErrInsufficientHistory)
	}
	if len(trend) < p.MinTrendBars {
		return Readings{}, fmt.Errorf("trend timeframe has %d bars, need %d: %w", len(trend), p.MinTrendBars, ErrInsufficientHistory)
	}
	if len(entry) < p.MinEntryBars {
		return Readings{}, fmt.Errorf("entry timeframe has %d bars, need %d: %w", len(entry), p.MinEntryBars, ErrInsufficientHistory)
	}

	biasClose := closes(bias)
	trendClose := closes(trend)
	entryHigh, entryLow, entryClose := ohlc(entry)

	r := Readings{
		BiasClose:  biasClose[len(biasClose)-1],
		BiasEMA:    indicators.Last(indicators.EMA(biasClose, p.BiasEMAWindow)),
		TrendFast:  indicators.Last(indicators.EMA(trendClose, p.TrendFastWindow)),
		TrendSlow:  indicators.Last(indicators.EMA(trendClose, p.TrendSlowWindow)),
		EntryClose: entryClose[len(entryClose)-1],
		RSI:        indicators.Last(indicators.RSI(entryClose, p.RSIWindow)),
		ADX:        indicators.Last(indicators.ADX(entryHigh, entryLow, entryClose, p.ADXWindow)),
		ATR:        indicators.Last(indicators.ATR(entryHigh, entryLow, entryClose, p.ATRWindow)),
	}

	for _, v := range []float64{r.BiasEMA, r.TrendFast, r.TrendSlow, r.RSI, r.ADX, r.ATR} {
		if !indicators.IsValid(v) {
			return Readings{}, fmt.Errorf("indicator undefined at latest bar: %w", ErrInsufficientHistory)
		}
	}
	return r, nil
}

// Evaluate returns an entry signal, or ok=false when no tradeable setup
// exists. Long requires macro bias up, trend alignment up, momentum not
// overbought, and trend strength above threshold; short is the exact mirror.
func Evaluate(instrument string, r Readings, p Params) (Signal, bool) {
	if r.ADX <= p.ADXThreshold {
		return Signal{}, false
	}

	if r.BiasClose > r.BiasEMA && r.TrendFast > r.TrendSlow && r.RSI < p.RSILongMax {
		return Signal{Instrument: instrument, Side: SideLong, Price: r.EntryClose, ATR: r.ATR}, true
	}
	if r.BiasClose < r.BiasEMA && r.TrendFast < r.TrendSlow && r.RSI > p.RSIShortMin {
		return Signal{Instrument: instrument, Side: SideShort, Price: r.EntryClose, ATR: r.ATR}, true
	}
	return Signal{}, false
}

func closes(candles []venue.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func ohlc(candles []venue.Candle) (high, low, close []float64) {
	high = make([]float64, len(candles))
	low = make([]float64, len(candles))
	close = make([]float64, len(candles))
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
	}
	return high, low, close
}
