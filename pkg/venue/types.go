package venue

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the reducing side for a position opened with s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType denotes the order types the engine places.
type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
	OrderTypeTakeProfit OrderType = "TAKE_PROFIT_MARKET"
)

// Candle is one OHLCV bar. Time is the bar open in unix milliseconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// OrderRequest captures an order intent to be sent to the venue.
type OrderRequest struct {
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Type       OrderType `json:"type"`
	Size       float64   `json:"size"`
	StopPrice  float64   `json:"stop_price,omitempty"` // trigger for stop/take-profit orders
	ReduceOnly bool      `json:"reduce_only,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
}

// OrderResult returns the venue ack.
type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Position is a venue-reported open position. Size is signed: positive long,
// negative short, zero flat.
type Position struct {
	Instrument string  `json:"instrument"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price"`
}

// Fill is one venue-reported execution, most recent first.
type Fill struct {
	Instrument  string  `json:"instrument"`
	Side        Side    `json:"side"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	RealizedPnL float64 `json:"realized_pnl"`
	Time        int64   `json:"time"`
}

// Ticker is a streamed last-price update.
type Ticker struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Time       int64   `json:"time"`
}
