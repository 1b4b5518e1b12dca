// Package state owns the in-memory set of open positions. The engine loop
// and the reconciler are its only writers.
package state

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyTracked preserves the one-open-position-per-instrument invariant.
var ErrAlreadyTracked = errors.New("position already tracked for instrument")

// Position is one open directional exposure. Stop and target are fixed at
// entry and never revised.
type Position struct {
	ID          string // journal trade id
	Instrument  string
	Side        string // strategy.SideLong / strategy.SideShort
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Size        float64
	RiskAmount  float64
	OpenedAt    time.Time
	Adopted     bool // true when recovered from venue state, not opened by us
}

// Tracker maps instrument -> open Position.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]Position
}

func NewTracker() *Tracker {
	return &Tracker{positions: make(map[string]Position)}
}

// Track adds a position; it refuses a second position for the same
// instrument rather than overwrite.
func (t *Tracker) Track(p Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.positions[p.Instrument]; exists {
		return ErrAlreadyTracked
	}
	t.positions[p.Instrument] = p
	return nil
}

// Get returns the open position for an instrument, if any.
func (t *Tracker) Get(instrument string) (Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.positions[instrument]
	return p, ok
}

// Remove deletes and returns the position; the second return is false when
// nothing was tracked (already removed).
func (t *Tracker) Remove(instrument string) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.positions[instrument]
	if ok {
		delete(t.positions, instrument)
	}
	return p, ok
}

// Snapshot returns a copy of all open positions.
func (t *Tracker) Snapshot() []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Position, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, p)
	}
	return out
}

// Len reports the number of open positions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}
