// Package engine drives the trading loop: every cycle it observes equity,
// updates the risk gate, reconciles venue state (or simulates exits in paper
// mode), and evaluates each instrument for a new entry. One position per
// instrument; stop and target are fixed at entry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"trend-engine/internal/execution"
	"trend-engine/internal/journal"
	"trend-engine/internal/metrics"
	"trend-engine/internal/risk"
	"trend-engine/internal/state"
	"trend-engine/internal/strategy"
	"trend-engine/pkg/config"
	"trend-engine/pkg/notify"
	"trend-engine/pkg/venue"
)

// candleHeadroom is fetched beyond the minimum bars so the newest indicator
// values sit well past their warmup.
const candleHeadroom = 40

// crashBackoff throttles the loop after an unexpected cycle failure.
const crashBackoff = 10 * time.Second

// WalletSource reads account equity from the venue.
type WalletSource interface {
	Wallet(ctx context.Context, currency string) (float64, error)
}

// BracketPlacer places a three-leg bracket order.
type BracketPlacer interface {
	PlaceBracket(ctx context.Context, b execution.Bracket) (execution.BracketResult, error)
}

// Reconciler runs one settlement sweep against venue state.
type Reconciler interface {
	Pass(ctx context.Context) error
}

// MarketData serves candles and last prices.
type MarketData interface {
	Candles(ctx context.Context, instrument, resolution string, limit int) ([]venue.Candle, error)
	LastPrice(ctx context.Context, instrument string) (float64, error)
}

// Deps wires the engine. Wallet, Exec and Recon must be set in live mode and
// nil in paper mode; paper exits are simulated from last prices instead.
type Deps struct {
	Config      *config.Config
	Instruments []config.Instrument
	Market      MarketData
	Wallet      WalletSource
	Exec        BracketPlacer
	Recon       Reconciler
	Gate        *risk.Gate
	Tracker     *state.Tracker
	Journal     *journal.Journal
	Notifier    notify.Notifier
	Params      strategy.Params
}

// Engine is the cycle driver.
type Engine struct {
	cfg         *config.Config
	instruments []config.Instrument
	market      MarketData
	wallet      WalletSource
	exec        BracketPlacer
	recon       Reconciler
	gate        *risk.Gate
	tracker     *state.Tracker
	journal     *journal.Journal
	notifier    notify.Notifier
	params      strategy.Params

	mu           sync.Mutex
	paperCapital float64
	lastEquity   float64
}

func New(d Deps) *Engine {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Params.BiasEMAWindow == 0 {
		d.Params = strategy.DefaultParams()
		d.Params.ADXThreshold = d.Config.ADXThreshold
	}
	return &Engine{
		cfg:          d.Config,
		instruments:  d.Instruments,
		market:       d.Market,
		wallet:       d.Wallet,
		exec:         d.Exec,
		recon:        d.Recon,
		gate:         d.Gate,
		tracker:      d.Tracker,
		journal:      d.Journal,
		notifier:     d.Notifier,
		params:       d.Params,
		paperCapital: d.Config.PaperStartCapital,
	}
}

// Equity returns the last observed account equity.
func (e *Engine) Equity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEquity
}

// Run executes cycles until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	names := make([]string, len(e.instruments))
	for i, in := range e.instruments {
		names[i] = in.Name
	}
	log.Printf("✓ engine started: mode=%s instruments=%v cycle=%s", e.cfg.Mode, names, e.cfg.CycleInterval)
	e.notifier.Notify(fmt.Sprintf("engine started in %s mode, watching %v", e.cfg.Mode, names))

	e.safeCycle(ctx)

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(e.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("engine stopped")
			return
		case <-ticker.C:
			e.safeCycle(ctx)
		case <-heartbeat.C:
			e.heartbeat()
		}
	}
}

// safeCycle absorbs anything a cycle throws: the loop must outlive any
// single bad cycle, backing off briefly so a hard venue outage does not
// spin.
func (e *Engine) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ cycle panic: %v", r)
			metrics.Errors.WithLabelValues("cycle").Inc()
			e.notifier.Notify(fmt.Sprintf("❌ engine cycle crashed: %v", r))
			select {
			case <-ctx.Done():
			case <-time.After(crashBackoff):
			}
		}
	}()
	e.cycle(ctx)
}

func (e *Engine) cycle(ctx context.Context) {
	now := time.Now()

	equity, err := e.equity(ctx)
	if err != nil {
		log.Printf("❌ equity read failed, skipping cycle: %v", err)
		metrics.Errors.WithLabelValues("equity").Inc()
		return
	}
	e.mu.Lock()
	e.lastEquity = equity
	e.mu.Unlock()
	metrics.Equity.Set(equity)

	if e.gate.Observe(ctx, now, equity) {
		day := e.gate.Snapshot()
		e.notifier.Notify(fmt.Sprintf("⚠️ daily loss limit hit (start %.2f, now %.2f) — no new entries until tomorrow",
			day.StartingEquity, equity))
	}
	if e.gate.Snapshot().Locked {
		metrics.GateLocked.Set(1)
	} else {
		metrics.GateLocked.Set(0)
	}

	if e.recon != nil {
		if err := e.recon.Pass(ctx); err != nil {
			log.Printf("⚠️ %v", err)
			metrics.Errors.WithLabelValues("reconcile").Inc()
		}
	} else {
		e.paperExits(ctx, now)
	}

	for _, inst := range e.instruments {
		e.evaluateInstrument(ctx, inst, equity)
	}

	metrics.OpenPositions.Set(float64(e.tracker.Len()))
	metrics.Cycles.Inc()
}

func (e *Engine) equity(ctx context.Context) (float64, error) {
	if e.wallet == nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.paperCapital, nil
	}
	currency := "USDT"
	if len(e.instruments) > 0 {
		currency = config.SettlementCurrency(e.instruments[0].Name)
	}
	return e.wallet.Wallet(ctx, currency)
}

// evaluateInstrument runs the signal pipeline for one instrument. Its own
// recover boundary keeps a bad instrument from starving the rest of the
// cycle.
func (e *Engine) evaluateInstrument(ctx context.Context, inst config.Instrument, equity float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ %s evaluation panic: %v", inst.Name, r)
			metrics.Errors.WithLabelValues("instrument").Inc()
		}
	}()

	if _, open := e.tracker.Get(inst.Name); open {
		return
	}
	if ok, _ := e.gate.Allowed(); !ok {
		return
	}

	readings, err := e.readings(ctx, inst)
	switch {
	case errors.Is(err, strategy.ErrInsufficientHistory):
		log.Printf("⚠️ %s: %v", inst.Name, err)
		return
	case err != nil:
		log.Printf("⚠️ %s market data: %v", inst.Name, err)
		metrics.Errors.WithLabelValues("market").Inc()
		return
	}

	sig, ok := strategy.Evaluate(inst.Name, readings, e.params)
	if !ok {
		return
	}
	metrics.Signals.WithLabelValues(sig.Side).Inc()
	log.Printf("✓ %s signal: %s @ %.2f (ATR %.2f, ADX %.1f, RSI %.1f)",
		sig.Instrument, sig.Side, sig.Price, sig.ATR, readings.ADX, readings.RSI)

	sizing, err := risk.Size(equity, sig.ATR, e.cfg.RiskFraction, e.cfg.Leverage, e.cfg.RRRatio, sig.Side, sig.Price)
	if err != nil {
		log.Printf("❌ %s sizing: %v", inst.Name, err)
		metrics.Errors.WithLabelValues("sizing").Inc()
		return
	}

	e.openPosition(ctx, sig, sizing)
}

func (e *Engine) readings(ctx context.Context, inst config.Instrument) (strategy.Readings, error) {
	bias, err := e.market.Candles(ctx, inst.Name, inst.BiasInterval, e.params.MinBiasBars+candleHeadroom)
	if err != nil {
		return strategy.Readings{}, err
	}
	trend, err := e.market.Candles(ctx, inst.Name, inst.TrendInterval, e.params.MinTrendBars+candleHeadroom)
	if err != nil {
		return strategy.Readings{}, err
	}
	entry, err := e.market.Candles(ctx, inst.Name, inst.EntryInterval, e.params.MinEntryBars+candleHeadroom)
	if err != nil {
		return strategy.Readings{}, err
	}
	return strategy.ComputeReadings(bias, trend, entry, e.params)
}

// openPosition places the bracket (live) or books a simulated entry (paper),
// then journals and tracks it. The tracker write comes last: once tracked,
// reconciliation owns the position's lifecycle.
func (e *Engine) openPosition(ctx context.Context, sig strategy.Signal, sizing risk.Sizing) {
	tradeID := uuid.NewString()
	unprotected := false

	if e.exec != nil {
		side := venue.SideBuy
		if sig.Side == strategy.SideShort {
			side = venue.SideSell
		}
		res, err := e.exec.PlaceBracket(ctx, execution.Bracket{
			Instrument:  sig.Instrument,
			Side:        side,
			Size:        sizing.Size,
			StopPrice:   sizing.Stop,
			TargetPrice: sizing.Target,
		})
		if err != nil {
			log.Printf("❌ %s entry rejected: %v", sig.Instrument, err)
			metrics.Errors.WithLabelValues("execution").Inc()
			e.notifier.Notify(fmt.Sprintf("❌ %s %s entry rejected: %v", sig.Instrument, sig.Side, err))
			return
		}
		if res.Outcome == execution.OutcomePartial {
			unprotected = true
			log.Printf("⚠️ %s position is live without full protection: %v", sig.Instrument, res.LegErr)
			e.notifier.Notify(fmt.Sprintf("⚠️ %s %s position is LIVE WITHOUT FULL PROTECTION: %v — manual intervention required",
				sig.Instrument, sig.Side, res.LegErr))
		}
	}

	rec := journal.TradeRecord{
		ID:          tradeID,
		Instrument:  sig.Instrument,
		Side:        sig.Side,
		EntryPrice:  sig.Price,
		StopPrice:   sizing.Stop,
		TargetPrice: sizing.Target,
		Size:        sizing.Size,
		RiskAmount:  sizing.RiskAmount,
		OpenedAt:    time.Now(),
		Unprotected: unprotected,
	}
	if err := e.journal.InsertOpen(ctx, rec); err != nil {
		// The position exists regardless; keep tracking it and alert.
		log.Printf("❌ %s journal write failed for live position: %v", sig.Instrument, err)
		metrics.Errors.WithLabelValues("journal").Inc()
		e.notifier.Notify(fmt.Sprintf("❌ %s trade not journaled: %v", sig.Instrument, err))
	}

	pos := state.Position{
		ID:          tradeID,
		Instrument:  sig.Instrument,
		Side:        sig.Side,
		EntryPrice:  sig.Price,
		StopPrice:   sizing.Stop,
		TargetPrice: sizing.Target,
		Size:        sizing.Size,
		RiskAmount:  sizing.RiskAmount,
		OpenedAt:    rec.OpenedAt,
	}
	if err := e.tracker.Track(pos); err != nil {
		log.Printf("❌ track %s: %v", sig.Instrument, err)
		return
	}

	e.gate.RecordTrade(ctx)
	metrics.TradesOpened.Inc()
	log.Printf("✓ %s %s opened: size %.4f @ %.2f, stop %.2f, target %.2f",
		sig.Instrument, sig.Side, sizing.Size, sig.Price, sizing.Stop, sizing.Target)
	e.notifier.Notify(fmt.Sprintf("%s %s opened: size %.4f @ %.2f, stop %.2f, target %.2f, risk %.2f",
		sig.Instrument, sig.Side, sizing.Size, sig.Price, sizing.Stop, sizing.Target, sizing.RiskAmount))
}

// paperExits closes simulated positions whose stop or target the last price
// has crossed, settling at the level itself the way the venue's trigger
// orders would.
func (e *Engine) paperExits(ctx context.Context, now time.Time) {
	for _, pos := range e.tracker.Snapshot() {
		price, err := e.market.LastPrice(ctx, pos.Instrument)
		if err != nil {
			log.Printf("⚠️ %s last price: %v", pos.Instrument, err)
			metrics.Errors.WithLabelValues("market").Inc()
			continue
		}

		exitPrice, hit := exitLevel(pos, price)
		if !hit {
			continue
		}

		pnl := (exitPrice - pos.EntryPrice) * pos.Size
		if pos.Side == strategy.SideShort {
			pnl = -pnl
		}

		err = e.journal.CloseTrade(ctx, pos.Instrument, exitPrice, pnl, now)
		if err != nil && !errors.Is(err, journal.ErrNoOpenTrade) {
			log.Printf("⚠️ %s paper close deferred: %v", pos.Instrument, err)
			metrics.Errors.WithLabelValues("journal").Inc()
			continue
		}

		if _, ok := e.tracker.Remove(pos.Instrument); !ok {
			continue
		}
		e.mu.Lock()
		e.paperCapital += pnl
		e.mu.Unlock()
		e.gate.RecordPnL(ctx, pnl)
		metrics.TradesClosed.WithLabelValues(metrics.CloseResult(pnl)).Inc()
		log.Printf("✓ %s paper close: exit %.2f, PnL %.2f", pos.Instrument, exitPrice, pnl)
		e.notifier.Notify(fmt.Sprintf("%s %s closed at %.2f, PnL %.2f (paper)",
			pos.Instrument, pos.Side, exitPrice, pnl))
	}
}

// exitLevel reports which bracket level the price has crossed, if any. Stop
// wins when a single observation crosses both.
func exitLevel(pos state.Position, price float64) (float64, bool) {
	if pos.Side == strategy.SideLong {
		if price <= pos.StopPrice {
			return pos.StopPrice, true
		}
		if price >= pos.TargetPrice {
			return pos.TargetPrice, true
		}
		return 0, false
	}
	if price >= pos.StopPrice {
		return pos.StopPrice, true
	}
	if price <= pos.TargetPrice {
		return pos.TargetPrice, true
	}
	return 0, false
}

func (e *Engine) heartbeat() {
	day := e.gate.Snapshot()
	equity := e.Equity()
	open := e.tracker.Len()
	log.Printf("heartbeat: mode=%s equity=%.2f open=%d day_pnl=%.2f trades=%d locked=%v",
		e.cfg.Mode, equity, open, day.RealizedPnL, day.Trades, day.Locked)
	e.notifier.Notify(fmt.Sprintf("heartbeat: equity %.2f, %d open, day PnL %.2f, %d trades today",
		equity, open, day.RealizedPnL, day.Trades))
}

// HandleClose settles one live closure reported by reconciliation. Wired as
// the reconciler's OnClose callback.
func (e *Engine) HandleClose(_ state.Position, _ float64, pnl float64) {
	e.gate.RecordPnL(context.Background(), pnl)
	metrics.TradesClosed.WithLabelValues(metrics.CloseResult(pnl)).Inc()
}
