package risk

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"trend-engine/pkg/db"
)

// DayState is the per-day circuit breaker state.
type DayState struct {
	Day            string  `json:"day"`
	StartingEquity float64 `json:"starting_equity"`
	RealizedPnL    float64 `json:"realized_pnl"`
	Trades         int     `json:"trades"`
	Locked         bool    `json:"locked"`
}

// Gate blocks new entries once the daily drawdown or trade count limit is
// hit. Existing positions are unaffected: it gates new risk, not open risk.
// State is persisted per calendar day so a restart cannot reset the breaker.
type Gate struct {
	database        *db.Database
	loc             *time.Location
	maxLossFraction float64
	maxTrades       int

	mu    sync.Mutex
	state DayState
}

// NewGate builds a gate; database may be nil for in-memory use in tests.
func NewGate(database *db.Database, loc *time.Location, maxLossFraction float64, maxTrades int) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{
		database:        database,
		loc:             loc,
		maxLossFraction: maxLossFraction,
		maxTrades:       maxTrades,
	}
}

// Observe rolls the trading day when the wall-clock date changes and applies
// the drawdown check against current equity. It returns true on the cycle
// where the gate first locks, so the caller can alert exactly once.
func (g *Gate) Observe(ctx context.Context, now time.Time, equity float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.In(g.loc).Format("2006-01-02")
	if day != g.state.Day {
		g.rollover(ctx, day, equity)
	}

	if g.state.Locked || g.state.StartingEquity <= 0 {
		return false
	}
	drawdown := (g.state.StartingEquity - equity) / g.state.StartingEquity
	if drawdown >= g.maxLossFraction {
		g.state.Locked = true
		g.persist(ctx)
		log.Printf("⚠️ risk gate locked: drawdown %.2f%% >= %.2f%% (start=%.2f now=%.2f)",
			drawdown*100, g.maxLossFraction*100, g.state.StartingEquity, equity)
		return true
	}
	return false
}

// rollover starts a fresh trading day, reusing a persisted row when the
// process restarted mid-day. Caller holds g.mu.
func (g *Gate) rollover(ctx context.Context, day string, equity float64) {
	if prev, err := g.load(ctx, day); err == nil {
		g.state = prev
		log.Printf("risk gate resumed day %s: start=%.2f trades=%d locked=%v",
			day, prev.StartingEquity, prev.Trades, prev.Locked)
		return
	}

	if g.state.Day != "" {
		log.Printf("risk gate new trading day %s (prev %s: pnl=%.2f trades=%d)",
			day, g.state.Day, g.state.RealizedPnL, g.state.Trades)
	}
	g.state = DayState{Day: day, StartingEquity: equity}
	g.persist(ctx)
}

// Allowed reports whether a new entry may be attempted right now.
func (g *Gate) Allowed() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Locked {
		return false, "daily loss limit breached"
	}
	if g.maxTrades > 0 && g.state.Trades >= g.maxTrades {
		return false, fmt.Sprintf("daily trade limit reached: %d/%d", g.state.Trades, g.maxTrades)
	}
	return true, ""
}

// RecordTrade counts one opened trade against the daily cap.
func (g *Gate) RecordTrade(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Trades++
	g.persist(ctx)
}

// RecordPnL accumulates realized PnL for the day's record.
func (g *Gate) RecordPnL(ctx context.Context, pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.RealizedPnL += pnl
	g.persist(ctx)
}

// Snapshot returns a copy of the current day state.
func (g *Gate) Snapshot() DayState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) load(ctx context.Context, day string) (DayState, error) {
	if g.database == nil || g.database.DB == nil {
		return DayState{}, sql.ErrNoRows
	}
	var (
		s      DayState
		locked int
	)
	err := g.database.DB.QueryRowContext(ctx, `
		SELECT day, starting_equity, realized_pnl, trades, locked
		FROM risk_days WHERE day = ?
	`, day).Scan(&s.Day, &s.StartingEquity, &s.RealizedPnL, &s.Trades, &locked)
	if err != nil {
		return DayState{}, err
	}
	s.Locked = locked == 1
	return s, nil
}

// persist is best-effort: the in-memory state stays authoritative and a
// write failure must not stop trading decisions. Caller holds g.mu.
func (g *Gate) persist(ctx context.Context) {
	if g.database == nil || g.database.DB == nil {
		return
	}
	locked := 0
	if g.state.Locked {
		locked = 1
	}
	_, err := g.database.DB.ExecContext(ctx, `
		INSERT INTO risk_days (day, starting_equity, realized_pnl, trades, locked)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			starting_equity = excluded.starting_equity,
			realized_pnl = excluded.realized_pnl,
			trades = excluded.trades,
			locked = excluded.locked
	`, g.state.Day, g.state.StartingEquity, g.state.RealizedPnL, g.state.Trades, locked)
	if err != nil {
		log.Printf("❌ risk gate persist failed: %v", err)
	}
}
