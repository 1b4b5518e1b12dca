// Package execution turns a sized trade decision into venue orders. One
// decision becomes a three-leg bracket: a market entry, then a reduce-only
// stop and a reduce-only take-profit on the opposite side. The legs are
// placed sequentially so a rejected entry never leaves resting exit orders.
package execution

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"trend-engine/pkg/venue"
)

// OrderPlacer is the slice of the venue session the gateway needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResult, error)
}

// Outcome classifies how much of a bracket made it to the venue.
type Outcome int

const (
	// OutcomeFailed means the entry itself was rejected; no position exists.
	OutcomeFailed Outcome = iota
	// OutcomePartial means the entry filled but at least one protective leg
	// was rejected. The position is live and unprotected.
	OutcomePartial
	// OutcomeOK means all three legs were accepted.
	OutcomeOK
)

// Bracket describes the three legs to place.
type Bracket struct {
	Instrument  string
	Side        venue.Side // entry side
	Size        float64
	StopPrice   float64
	TargetPrice float64
}

// BracketResult reports the venue acks per leg. Leg IDs are empty for legs
// that were never accepted.
type BracketResult struct {
	Outcome  Outcome
	EntryID  string
	StopID   string
	TargetID string
	// LegErr holds the first protective-leg error when Outcome is Partial.
	LegErr error
}

// Gateway places bracket orders through a venue session.
type Gateway struct {
	placer OrderPlacer
}

func NewGateway(placer OrderPlacer) *Gateway {
	return &Gateway{placer: placer}
}

// PlaceBracket executes entry, stop, target in order. It returns an error
// only when the entry fails; protective-leg failures are reported in the
// result so the caller can alert and journal the position as unprotected
// rather than lose track of a live position.
func (g *Gateway) PlaceBracket(ctx context.Context, b Bracket) (BracketResult, error) {
	var res BracketResult

	entry, err := g.placer.PlaceOrder(ctx, venue.OrderRequest{
		Instrument: b.Instrument,
		Side:       b.Side,
		Type:       venue.OrderTypeMarket,
		Size:       b.Size,
		ClientID:   uuid.NewString(),
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("entry order for %s: %w", b.Instrument, err)
	}
	res.EntryID = entry.OrderID

	exitSide := b.Side.Opposite()

	stop, err := g.placer.PlaceOrder(ctx, venue.OrderRequest{
		Instrument: b.Instrument,
		Side:       exitSide,
		Type:       venue.OrderTypeStopMarket,
		Size:       b.Size,
		StopPrice:  b.StopPrice,
		ReduceOnly: true,
		ClientID:   uuid.NewString(),
	})
	if err != nil {
		log.Printf("⚠️ stop leg rejected for %s: %v", b.Instrument, err)
		res.Outcome = OutcomePartial
		res.LegErr = fmt.Errorf("stop leg for %s: %w", b.Instrument, err)
		return res, nil
	}
	res.StopID = stop.OrderID

	target, err := g.placer.PlaceOrder(ctx, venue.OrderRequest{
		Instrument: b.Instrument,
		Side:       exitSide,
		Type:       venue.OrderTypeTakeProfit,
		Size:       b.Size,
		StopPrice:  b.TargetPrice,
		ReduceOnly: true,
		ClientID:   uuid.NewString(),
	})
	if err != nil {
		log.Printf("⚠️ take-profit leg rejected for %s: %v", b.Instrument, err)
		res.Outcome = OutcomePartial
		res.LegErr = fmt.Errorf("take-profit leg for %s: %w", b.Instrument, err)
		return res, nil
	}
	res.TargetID = target.OrderID

	res.Outcome = OutcomeOK
	return res, nil
}
