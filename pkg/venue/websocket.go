package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TickerStream keeps a best-effort cache of last prices from the venue's
// public ticker websocket. Callers fall back to REST when an instrument has
// no cached price yet.
type TickerStream struct {
	url    string
	dialer *websocket.Dialer

	mu     sync.RWMutex
	prices map[string]float64
}

// NewTickerStream builds a stream client for the given wss URL.
func NewTickerStream(wsURL string) *TickerStream {
	return &TickerStream{
		url:    wsURL,
		dialer: websocket.DefaultDialer,
		prices: make(map[string]float64),
	}
}

// Last returns the cached last price for an instrument, if any.
func (s *TickerStream) Last(instrument string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[instrument]
	return p, ok && p > 0
}

// Start subscribes to ticker updates for the given instruments and keeps the
// cache fresh until ctx is cancelled, redialing on connection loss.
func (s *TickerStream) Start(ctx context.Context, instruments []string) {
	go func() {
		for {
			if err := s.run(ctx, instruments); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("venue ws: %v, reconnecting", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
}

func (s *TickerStream) run(ctx context.Context, instruments []string) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial venue ws: %w", err)
	}
	defer conn.Close()

	sub := map[string]any{"op": "subscribe", "channel": "ticker", "instruments": instruments}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe ticker: %w", err)
	}

	// Unblock ReadMessage when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var t Ticker
		if err := json.Unmarshal(msg, &t); err != nil || t.Instrument == "" {
			continue
		}
		if t.Price <= 0 {
			continue
		}
		s.mu.Lock()
		s.prices[t.Instrument] = t.Price
		s.mu.Unlock()
	}
}
