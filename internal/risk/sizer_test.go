package risk

import (
	"math"
	"testing"

	"trend-engine/internal/strategy"
)

func TestSizeLongScenario(t *testing.T) {
	// equity=10000, risk=0.3%, leverage=5, atr=50, rr=2, entry=30000
	s, err := Size(10000, 50, 0.003, 5, 2, strategy.SideLong, 30000)
	if err != nil {
		t.Fatalf("Size returned error: %v", err)
	}

	if s.StopDistance != 75 {
		t.Fatalf("StopDistance=%v, expected 75", s.StopDistance)
	}
	if s.Size != 2.0 {
		t.Fatalf("Size=%v, expected 2.0", s.Size)
	}
	if s.Stop != 29925 {
		t.Fatalf("Stop=%v, expected 29925", s.Stop)
	}
	if s.Target != 30150 {
		t.Fatalf("Target=%v, expected 30150", s.Target)
	}
	if s.RiskAmount != 30 {
		t.Fatalf("RiskAmount=%v, expected 30", s.RiskAmount)
	}
}

func TestSizeShortMirrors(t *testing.T) {
	long, err := Size(10000, 50, 0.003, 5, 2, strategy.SideLong, 30000)
	if err != nil {
		t.Fatalf("long: %v", err)
	}
	short, err := Size(10000, 50, 0.003, 5, 2, strategy.SideShort, 30000)
	if err != nil {
		t.Fatalf("short: %v", err)
	}

	if short.Size != long.Size {
		t.Fatalf("short size=%v, long size=%v; sizing must not depend on direction", short.Size, long.Size)
	}
	if short.Stop != 30075 {
		t.Fatalf("short stop=%v, expected 30075 (above entry)", short.Stop)
	}
	if short.Target != 29850 {
		t.Fatalf("short target=%v, expected 29850 (below entry)", short.Target)
	}
}

func TestSizeOffsetsExact(t *testing.T) {
	tests := []struct {
		name    string
		side    string
		atr     float64
		rrRatio float64
		entry   float64
	}{
		{"long small atr", strategy.SideLong, 0.5, 2, 100},
		{"long big atr", strategy.SideLong, 320, 3, 64000},
		{"short fractional", strategy.SideShort, 1.25, 1.5, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Size(5000, tt.atr, 0.01, 1, tt.rrRatio, tt.side, tt.entry)
			if err != nil {
				t.Fatalf("Size returned error: %v", err)
			}

			wantStop := tt.atr * StopATRMultiplier
			if got := math.Abs(tt.entry - s.Stop); math.Abs(got-wantStop) > 1e-9 {
				t.Fatalf("|entry-stop|=%v, expected %v", got, wantStop)
			}
			wantTarget := wantStop * tt.rrRatio
			if got := math.Abs(s.Target - tt.entry); math.Abs(got-wantTarget) > 1e-9 {
				t.Fatalf("|target-entry|=%v, expected %v", got, wantTarget)
			}
			if s.Size <= 0 {
				t.Fatalf("Size=%v, expected positive", s.Size)
			}

			if tt.side == strategy.SideLong && (s.Stop >= tt.entry || s.Target <= tt.entry) {
				t.Fatalf("long levels inverted: stop=%v entry=%v target=%v", s.Stop, tt.entry, s.Target)
			}
			if tt.side == strategy.SideShort && (s.Stop <= tt.entry || s.Target >= tt.entry) {
				t.Fatalf("short levels inverted: stop=%v entry=%v target=%v", s.Stop, tt.entry, s.Target)
			}
		})
	}
}

func TestSizeRejectsBadInputs(t *testing.T) {
	tests := []struct {
		name   string
		equity float64
		atr    float64
		entry  float64
		side   string
	}{
		{"zero equity", 0, 50, 30000, strategy.SideLong},
		{"negative equity", -100, 50, 30000, strategy.SideLong},
		{"zero atr", 10000, 0, 30000, strategy.SideLong},
		{"negative atr", 10000, -5, 30000, strategy.SideShort},
		{"zero entry", 10000, 50, 0, strategy.SideLong},
		{"unknown side", 10000, 50, 30000, "SIDEWAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Size(tt.equity, tt.atr, 0.01, 1, 2, tt.side, tt.entry); err == nil {
				t.Fatal("Size accepted corrupt input; expected error")
			}
		})
	}
}
