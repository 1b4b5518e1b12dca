// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycles counts completed evaluation cycles.
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_cycles_total",
		Help: "Completed evaluation cycles.",
	})

	// Signals counts strategy signals by side.
	Signals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_signals_total",
		Help: "Strategy signals emitted, by side.",
	}, []string{"side"})

	// TradesOpened counts journaled entries.
	TradesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_trades_opened_total",
		Help: "Trades opened.",
	})

	// TradesClosed counts settled closures by result.
	TradesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_trades_closed_total",
		Help: "Trades closed, by result (win/loss).",
	}, []string{"result"})

	// Errors counts per-stage failures that were absorbed by the loop.
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_errors_total",
		Help: "Errors absorbed by the engine, by stage.",
	}, []string{"stage"})

	// Equity is the latest observed account equity.
	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_equity",
		Help: "Latest observed account equity.",
	})

	// GateLocked is 1 while the daily risk gate is locked.
	GateLocked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_risk_gate_locked",
		Help: "1 while the daily loss gate blocks new entries.",
	})

	// OpenPositions is the number of positions the engine is tracking.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_open_positions",
		Help: "Positions currently tracked by the engine.",
	})
)

// CloseResult maps a realized PnL to the trades-closed label.
func CloseResult(pnl float64) string {
	if pnl >= 0 {
		return "win"
	}
	return "loss"
}
