// Package market fetches the bars and prices the strategy consumes.
package market

import (
	"context"
	"fmt"

	"trend-engine/pkg/venue"
)

// CandleSource abstracts REST candle access for tests.
type CandleSource interface {
	GetCandles(ctx context.Context, instrument, resolution string, limit int) ([]venue.Candle, error)
	GetTicker(ctx context.Context, instrument string) (float64, error)
}

// LastPriceCache is a best-effort price cache, usually the ticker websocket.
type LastPriceCache interface {
	Last(instrument string) (float64, bool)
}

// Gateway serves candles and last prices, preferring the streamed cache for
// prices and falling back to REST.
type Gateway struct {
	source CandleSource
	cache  LastPriceCache
}

// NewGateway builds a market gateway. cache may be nil (paper mode without a
// websocket), in which case every price read goes to REST.
func NewGateway(source CandleSource, cache LastPriceCache) *Gateway {
	return &Gateway{source: source, cache: cache}
}

// Candles fetches limit bars at the given resolution, newest last. An empty
// response is an error: the strategy must never evaluate a missing series.
func (g *Gateway) Candles(ctx context.Context, instrument, resolution string, limit int) ([]venue.Candle, error) {
	candles, err := g.source.GetCandles(ctx, instrument, resolution, limit)
	if err != nil {
		return nil, fmt.Errorf("candles %s %s: %w", instrument, resolution, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("candles %s %s: empty response", instrument, resolution)
	}
	return candles, nil
}

// LastPrice returns the freshest known price for an instrument.
func (g *Gateway) LastPrice(ctx context.Context, instrument string) (float64, error) {
	if g.cache != nil {
		if p, ok := g.cache.Last(instrument); ok {
			return p, nil
		}
	}
	p, err := g.source.GetTicker(ctx, instrument)
	if err != nil {
		return 0, fmt.Errorf("last price %s: %w", instrument, err)
	}
	return p, nil
}
