// Package reconcile compares the engine's tracked positions against
// venue-reported state and settles the differences. The venue is the source
// of truth: a tracked position the venue no longer holds is settled from its
// latest fill, and a venue position the engine does not know is adopted so
// its eventual exit is still observed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"trend-engine/internal/journal"
	"trend-engine/internal/state"
	"trend-engine/internal/strategy"
	"trend-engine/pkg/notify"
	"trend-engine/pkg/venue"
)

// VenueState is the slice of the venue session the reconciler reads.
type VenueState interface {
	Positions(ctx context.Context) ([]venue.Position, error)
	Fills(ctx context.Context, instrument string, limit int) ([]venue.Fill, error)
}

// TradeCloser applies the exit half of a journal record.
type TradeCloser interface {
	CloseTrade(ctx context.Context, instrument string, exitPrice, realizedPnL float64, closedAt time.Time) error
}

// Reconciler settles closures and adopts unknown positions. OnClose fires
// once per settled closure, after the journal write succeeded.
type Reconciler struct {
	venue    VenueState
	tracker  *state.Tracker
	journal  TradeCloser
	notifier notify.Notifier

	// OnClose receives each settled closure (gate PnL accounting, metrics,
	// paper capital updates live in the caller).
	OnClose func(pos state.Position, exitPrice, realizedPnL float64)
}

func New(venueState VenueState, tracker *state.Tracker, tradeCloser TradeCloser, notifier notify.Notifier) *Reconciler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Reconciler{venue: venueState, tracker: tracker, journal: tradeCloser, notifier: notifier}
}

// Pass runs one reconciliation sweep. A failed positions fetch aborts the
// sweep; per-instrument settlement failures are logged and retried on the
// next pass, so a closure is never dropped and never settled twice.
func (r *Reconciler) Pass(ctx context.Context) error {
	positions, err := r.venue.Positions(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: fetch positions: %w", err)
	}

	held := make(map[string]venue.Position, len(positions))
	for _, p := range positions {
		if p.Size != 0 {
			held[p.Instrument] = p
		}
	}

	for _, tracked := range r.tracker.Snapshot() {
		if _, stillOpen := held[tracked.Instrument]; stillOpen {
			continue
		}
		if err := r.settle(ctx, tracked); err != nil {
			log.Printf("⚠️ reconcile %s: %v (will retry next pass)", tracked.Instrument, err)
		}
	}

	for instrument, pos := range held {
		if _, known := r.tracker.Get(instrument); !known {
			r.adopt(pos)
		}
	}

	return nil
}

// settle resolves one tracked position the venue reports as flat. The
// position stays tracked until the journal write lands, so transient fill
// or DB failures just defer settlement to the next pass.
func (r *Reconciler) settle(ctx context.Context, pos state.Position) error {
	fills, err := r.venue.Fills(ctx, pos.Instrument, 5)
	if err != nil {
		return fmt.Errorf("fetch fills: %w", err)
	}
	if len(fills) == 0 {
		return errors.New("position flat at venue but no fills reported")
	}

	fill := fills[0] // newest first
	exitPrice := fill.Price
	pnl := fill.RealizedPnL
	closedAt := time.UnixMilli(fill.Time)
	if fill.Time == 0 {
		closedAt = time.Now()
	}

	err = r.journal.CloseTrade(ctx, pos.Instrument, exitPrice, pnl, closedAt)
	switch {
	case errors.Is(err, journal.ErrNoOpenTrade):
		// Position opened outside this engine; nothing to journal but the
		// exposure is gone, so stop tracking it.
		log.Printf("⚠️ %s closed at venue with no journaled entry", pos.Instrument)
		r.notifier.Notify(fmt.Sprintf("⚠️ %s position closed at venue with no journaled entry (PnL %.2f)", pos.Instrument, pnl))
	case err != nil:
		return fmt.Errorf("journal close: %w", err)
	}

	if _, ok := r.tracker.Remove(pos.Instrument); !ok {
		return nil
	}

	log.Printf("✓ %s closed: exit %.2f, realized PnL %.2f", pos.Instrument, exitPrice, pnl)
	r.notifier.Notify(fmt.Sprintf("%s %s closed at %.2f, PnL %.2f",
		pos.Instrument, pos.Side, exitPrice, pnl))
	if r.OnClose != nil {
		r.OnClose(pos, exitPrice, pnl)
	}
	return nil
}

// adopt starts tracking a venue position this engine did not open. No
// journal row is written: if the row from a pre-restart entry still exists
// it will receive the exit update; a manually opened position settles with
// a no-open-trade notice instead.
func (r *Reconciler) adopt(pos venue.Position) {
	side := strategy.SideLong
	size := pos.Size
	if size < 0 {
		side = strategy.SideShort
		size = -size
	}

	adopted := state.Position{
		ID:         uuid.NewString(),
		Instrument: pos.Instrument,
		Side:       side,
		EntryPrice: pos.EntryPrice,
		Size:       size,
		OpenedAt:   time.Now(),
		Adopted:    true,
	}
	if err := r.tracker.Track(adopted); err != nil {
		return
	}

	log.Printf("⚠️ adopted untracked %s position: %s %.4f @ %.2f", pos.Instrument, side, size, pos.EntryPrice)
	r.notifier.Notify(fmt.Sprintf("⚠️ adopted untracked position: %s %s %.4f @ %.2f",
		pos.Instrument, side, size, pos.EntryPrice))
}
