package risk

import (
	"context"
	"testing"
	"time"
)

func TestGateLocksOnDrawdown(t *testing.T) {
	g := NewGate(nil, time.UTC, 0.02, 0)
	ctx := context.Background()
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	g.Observe(ctx, day1, 10000)
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("gate locked at day start")
	}

	// 1.5% down: still trading.
	if locked := g.Observe(ctx, day1.Add(time.Hour), 9850); locked {
		t.Fatal("gate locked below threshold")
	}

	// 2.1% down: locks, and reports the transition exactly once.
	if locked := g.Observe(ctx, day1.Add(2*time.Hour), 9790); !locked {
		t.Fatal("gate did not lock at 2.1% drawdown")
	}
	if ok, reason := g.Allowed(); ok || reason == "" {
		t.Fatalf("Allowed()=%v %q after lock", ok, reason)
	}
	if locked := g.Observe(ctx, day1.Add(3*time.Hour), 9790); locked {
		t.Fatal("lock transition reported twice")
	}

	// Equity recovering does not unlock within the same day.
	g.Observe(ctx, day1.Add(4*time.Hour), 10100)
	if ok, _ := g.Allowed(); ok {
		t.Fatal("gate unlocked mid-day on equity recovery")
	}
}

func TestGateResetsOnNewDay(t *testing.T) {
	g := NewGate(nil, time.UTC, 0.02, 0)
	ctx := context.Background()
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	g.Observe(ctx, day1, 10000)
	g.Observe(ctx, day1.Add(time.Hour), 9700) // locks
	g.RecordTrade(ctx)

	day2 := day1.Add(24 * time.Hour)
	g.Observe(ctx, day2, 9700)

	s := g.Snapshot()
	if s.Locked {
		t.Fatal("gate still locked after day rollover")
	}
	if s.StartingEquity != 9700 {
		t.Fatalf("StartingEquity=%v, expected new day's equity 9700", s.StartingEquity)
	}
	if s.Trades != 0 {
		t.Fatalf("Trades=%d, expected reset to 0", s.Trades)
	}
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("gate not allowing entries on fresh day")
	}
}

func TestGateDailyTradeCap(t *testing.T) {
	g := NewGate(nil, time.UTC, 0.02, 2)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	g.Observe(ctx, now, 10000)

	g.RecordTrade(ctx)
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("gate blocked before cap reached")
	}
	g.RecordTrade(ctx)
	if ok, reason := g.Allowed(); ok || reason == "" {
		t.Fatalf("Allowed()=%v %q, expected trade cap block", ok, reason)
	}

	// Cap resets with the day.
	g.Observe(ctx, now.Add(24*time.Hour), 10000)
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("trade cap not reset on new day")
	}
}

func TestGateIgnoresDrawdownBeforeFirstObserve(t *testing.T) {
	g := NewGate(nil, time.UTC, 0.02, 0)
	if ok, _ := g.Allowed(); !ok {
		t.Fatal("gate locked before any observation")
	}
}
