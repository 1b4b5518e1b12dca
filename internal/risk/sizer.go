// Package risk holds the position sizer and the daily loss circuit breaker.
package risk

import (
	"fmt"

	"trend-engine/internal/strategy"
)

// StopATRMultiplier fixes the stop distance as a multiple of ATR.
const StopATRMultiplier = 1.5

// Sizing is a fully determined entry: how much to buy/sell and where the
// protective legs sit. Stop and target are fixed here and never revised.
type Sizing struct {
	Size         float64
	Stop         float64
	Target       float64
	StopDistance float64
	RiskAmount   float64 // equity fraction at risk, in settlement currency
}

// Size converts equity, volatility and the fixed risk budget into an order
// size and stop/target levels. It performs no I/O.
//
// Non-positive equity or ATR indicates corrupt upstream data and fails hard;
// silently clamping would let a bad feed size a real order.
func Size(equity, atr, riskFraction, leverage, rrRatio float64, side string, entryPrice float64) (Sizing, error) {
	if equity <= 0 {
		return Sizing{}, fmt.Errorf("sizing: non-positive equity %v", equity)
	}
	stopDistance := atr * StopATRMultiplier
	if stopDistance <= 0 {
		return Sizing{}, fmt.Errorf("sizing: non-positive stop distance %v (atr=%v)", stopDistance, atr)
	}
	if entryPrice <= 0 {
		return Sizing{}, fmt.Errorf("sizing: non-positive entry price %v", entryPrice)
	}

	riskAmount := equity * riskFraction
	size := riskAmount * leverage / stopDistance

	s := Sizing{
		Size:         size,
		StopDistance: stopDistance,
		RiskAmount:   riskAmount,
	}
	switch side {
	case strategy.SideLong:
		s.Stop = entryPrice - stopDistance
		s.Target = entryPrice + stopDistance*rrRatio
	case strategy.SideShort:
		s.Stop = entryPrice + stopDistance
		s.Target = entryPrice - stopDistance*rrRatio
	default:
		return Sizing{}, fmt.Errorf("sizing: unknown side %q", side)
	}
	return s, nil
}
