package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"trend-engine/pkg/venue"
)

type fakeSource struct {
	candles     []venue.Candle
	candleErr   error
	tickerPrice float64
	tickerErr   error
	tickerCalls int
}

func (f *fakeSource) GetCandles(context.Context, string, string, int) ([]venue.Candle, error) {
	return f.candles, f.candleErr
}

func (f *fakeSource) GetTicker(context.Context, string) (float64, error) {
	f.tickerCalls++
	return f.tickerPrice, f.tickerErr
}

type fakeCache struct {
	prices map[string]float64
}

func (f *fakeCache) Last(instrument string) (float64, bool) {
	p, ok := f.prices[instrument]
	return p, ok
}

func TestCandlesRejectsEmptyResponse(t *testing.T) {
	g := NewGateway(&fakeSource{}, nil)

	_, err := g.Candles(context.Background(), "BTCUSDT", "15m", 210)
	require.Error(t, err)
}

func TestCandlesPassThrough(t *testing.T) {
	src := &fakeSource{candles: []venue.Candle{{Close: 30000}, {Close: 30010}}}
	g := NewGateway(src, nil)

	candles, err := g.Candles(context.Background(), "BTCUSDT", "15m", 210)
	require.NoError(t, err)
	require.Len(t, candles, 2)
}

func TestCandlesWrapsSourceError(t *testing.T) {
	src := &fakeSource{candleErr: errors.New("timeout")}
	g := NewGateway(src, nil)

	_, err := g.Candles(context.Background(), "BTCUSDT", "1h", 210)
	require.ErrorContains(t, err, "timeout")
}

func TestLastPricePrefersCache(t *testing.T) {
	src := &fakeSource{tickerPrice: 29000}
	cache := &fakeCache{prices: map[string]float64{"BTCUSDT": 30123}}
	g := NewGateway(src, cache)

	p, err := g.LastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, 30123.0, p)
	require.Zero(t, src.tickerCalls)
}

func TestLastPriceFallsBackToREST(t *testing.T) {
	src := &fakeSource{tickerPrice: 29000}
	cache := &fakeCache{prices: map[string]float64{}}
	g := NewGateway(src, cache)

	p, err := g.LastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, 29000.0, p)
	require.Equal(t, 1, src.tickerCalls)
}

func TestLastPriceWithoutCache(t *testing.T) {
	src := &fakeSource{tickerPrice: 2000}
	g := NewGateway(src, nil)

	p, err := g.LastPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	require.Equal(t, 2000.0, p)
}
