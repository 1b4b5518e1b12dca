package execution

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"trend-engine/pkg/venue"
)

// fakePlacer records requests and fails the nth call (1-based) when failAt > 0.
type fakePlacer struct {
	requests []venue.OrderRequest
	failAt   int
}

func (f *fakePlacer) PlaceOrder(_ context.Context, req venue.OrderRequest) (venue.OrderResult, error) {
	f.requests = append(f.requests, req)
	if f.failAt == len(f.requests) {
		return venue.OrderResult{}, errors.New("rejected")
	}
	return venue.OrderResult{OrderID: fmt.Sprintf("ord-%d", len(f.requests)), Status: "ACCEPTED"}, nil
}

func longBracket() Bracket {
	return Bracket{
		Instrument:  "BTCUSDT",
		Side:        venue.SideBuy,
		Size:        2,
		StopPrice:   29925,
		TargetPrice: 30150,
	}
}

func TestPlaceBracketAllLegs(t *testing.T) {
	placer := &fakePlacer{}
	g := NewGateway(placer)

	res, err := g.PlaceBracket(context.Background(), longBracket())
	require.NoError(t, err)
	require.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, placer.requests, 3)

	entry := placer.requests[0]
	require.Equal(t, venue.OrderTypeMarket, entry.Type)
	require.Equal(t, venue.SideBuy, entry.Side)
	require.False(t, entry.ReduceOnly)
	require.NotEmpty(t, entry.ClientID)

	stop := placer.requests[1]
	require.Equal(t, venue.OrderTypeStopMarket, stop.Type)
	require.Equal(t, venue.SideSell, stop.Side)
	require.True(t, stop.ReduceOnly)
	require.Equal(t, 29925.0, stop.StopPrice)
	require.Equal(t, 2.0, stop.Size)

	target := placer.requests[2]
	require.Equal(t, venue.OrderTypeTakeProfit, target.Type)
	require.Equal(t, venue.SideSell, target.Side)
	require.True(t, target.ReduceOnly)
	require.Equal(t, 30150.0, target.StopPrice)

	require.NotEqual(t, entry.ClientID, stop.ClientID)
	require.NotEqual(t, stop.ClientID, target.ClientID)
}

func TestEntryRejectionPlacesNoExitLegs(t *testing.T) {
	placer := &fakePlacer{failAt: 1}
	g := NewGateway(placer)

	res, err := g.PlaceBracket(context.Background(), longBracket())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, res.Outcome)
	require.Len(t, placer.requests, 1, "no protective legs after a rejected entry")
}

func TestStopLegRejectionIsPartial(t *testing.T) {
	placer := &fakePlacer{failAt: 2}
	g := NewGateway(placer)

	res, err := g.PlaceBracket(context.Background(), longBracket())
	require.NoError(t, err, "a live position must not surface as a placement error")
	require.Equal(t, OutcomePartial, res.Outcome)
	require.NotEmpty(t, res.EntryID)
	require.Empty(t, res.StopID)
	require.Error(t, res.LegErr)
	require.Len(t, placer.requests, 2, "no take-profit attempt after a rejected stop")
}

func TestTargetLegRejectionIsPartial(t *testing.T) {
	placer := &fakePlacer{failAt: 3}
	g := NewGateway(placer)

	res, err := g.PlaceBracket(context.Background(), longBracket())
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, res.Outcome)
	require.NotEmpty(t, res.EntryID)
	require.NotEmpty(t, res.StopID)
	require.Empty(t, res.TargetID)
}

func TestShortBracketSides(t *testing.T) {
	placer := &fakePlacer{}
	g := NewGateway(placer)

	b := Bracket{Instrument: "ETHUSDT", Side: venue.SideSell, Size: 1, StopPrice: 2050, TargetPrice: 1900}
	_, err := g.PlaceBracket(context.Background(), b)
	require.NoError(t, err)

	require.Equal(t, venue.SideSell, placer.requests[0].Side)
	require.Equal(t, venue.SideBuy, placer.requests[1].Side)
	require.Equal(t, venue.SideBuy, placer.requests[2].Side)
}
