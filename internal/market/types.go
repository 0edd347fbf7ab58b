package market

import "time"

// Quote is the unified per-ticker projection read by downstream consumers.
type Quote struct {
	Ticker        string
	Price         float64 // Resolved price (last trade > midpoint > either side)
	Change        float64 // Price - reference close
	ChangePercent float64 // Change / reference close * 100
	BidPrice      float64
	BidSize       int64
	AskPrice      float64
	AskSize       int64
	Volume        int64 // Running intraday volume, additive
	UpdatedAt     time.Time
}

// Trade is a single executed trade event.
type Trade struct {
	Ticker     string
	Price      float64
	Size       int64
	Conditions []int
	Timestamp  time.Time
}

// Aggregate is one bar window (OHLCV + VWAP).
type Aggregate struct {
	Ticker    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	VWAP      float64
	WindowEnd time.Time
}

// resolvePrice applies the price preference order: last trade, then bid/ask
// midpoint, then whichever side is available. Returns 0 when nothing usable
// exists; callers must treat 0 as an invalid observation.
func resolvePrice(lastTrade, bid, ask float64) float64 {
	if lastTrade > 0 {
		return lastTrade
	}
	if bid > 0 && ask > 0 {
		return (bid + ask) / 2
	}
	if bid > 0 {
		return bid
	}
	return ask
}
