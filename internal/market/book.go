package market

import (
	"log/slog"
	"sync"
	"time"
)

// Book owns all per-ticker projections for one streaming session.
// It is safe for concurrent use; every accessor copies out value types.
type Book struct {
	logger *slog.Logger

	mu        sync.RWMutex
	quotes    map[string]*Quote
	lastTrade map[string]float64   // Last trade price per ticker
	bars      map[string]Aggregate // Current bar, replaced wholesale
	refClose  map[string]float64   // Previous-session close baseline
	seeded    map[string]bool      // Baseline came from first price, not the snapshot fetch
}

// NewBook creates an empty Book.
func NewBook(logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		logger:    logger,
		quotes:    make(map[string]*Quote),
		lastTrade: make(map[string]float64),
		bars:      make(map[string]Aggregate),
		refClose:  make(map[string]float64),
		seeded:    make(map[string]bool),
	}
}

// SetReferenceClose installs the change/changePercent baseline for a ticker,
// fetched once out-of-band. It replaces a baseline seeded from the first
// observed price, but a real baseline is never overwritten.
func (b *Book) SetReferenceClose(ticker string, close float64) {
	if close <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.refClose[ticker]; exists && !b.seeded[ticker] {
		return
	}
	b.refClose[ticker] = close
	delete(b.seeded, ticker)
	if q, ok := b.quotes[ticker]; ok && q.Price > 0 {
		q.Change, q.ChangePercent = changeAgainst(q.Price, close)
	}
}

// ReferenceClose returns the cached baseline, if any.
func (b *Book) ReferenceClose(ticker string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.refClose[ticker]
	return c, ok
}

// ApplyQuote folds a bid/ask update into the ticker's projection.
// A quote that resolves to a zero price is dropped silently.
func (b *Book) ApplyQuote(ticker string, bid, ask float64, bidSize, askSize int64, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	price := resolvePrice(b.lastTrade[ticker], bid, ask)
	if price <= 0 {
		b.logger.Debug("dropping zero-resolved quote", "ticker", ticker)
		return
	}

	q := b.ensureQuote(ticker)
	q.BidPrice = bid
	q.BidSize = bidSize
	q.AskPrice = ask
	q.AskSize = askSize
	b.setPrice(q, price, ts)
}

// ApplyTrade folds an executed trade into the ticker's projection. Volume
// accumulates additively onto whatever is already tracked; it never resets
// intraday. Zero-priced trades are dropped.
func (b *Book) ApplyTrade(tr Trade) {
	if tr.Price <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastTrade[tr.Ticker] = tr.Price

	q := b.ensureQuote(tr.Ticker)
	q.Volume += tr.Size
	b.setPrice(q, tr.Price, tr.Timestamp)
}

// ApplyAggregate replaces the tracked bar wholesale and refreshes the quote
// projection when the bar is more recent than the last known price.
func (b *Book) ApplyAggregate(agg Aggregate) {
	if agg.Close <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bars[agg.Ticker] = agg

	q := b.ensureQuote(agg.Ticker)
	if !agg.WindowEnd.After(q.UpdatedAt) {
		return
	}
	b.lastTrade[agg.Ticker] = agg.Close
	b.setPrice(q, agg.Close, agg.WindowEnd)
}

// Snapshot returns a copy of the ticker's projection.
func (b *Book) Snapshot(ticker string) (Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[ticker]
	if !ok {
		return Quote{}, false
	}
	return *q, true
}

// Bar returns a copy of the ticker's current aggregate bar.
func (b *Book) Bar(ticker string) (Aggregate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	agg, ok := b.bars[ticker]
	return agg, ok
}

// Drop discards all projection state for a ticker. Called on unsubscribe.
func (b *Book) Drop(ticker string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.quotes, ticker)
	delete(b.lastTrade, ticker)
	delete(b.bars, ticker)
	delete(b.refClose, ticker)
	delete(b.seeded, ticker)
}

// Tickers returns all tickers with live projections.
func (b *Book) Tickers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.quotes))
	for t := range b.quotes {
		out = append(out, t)
	}
	return out
}

// ensureQuote returns the mutable projection for a ticker, creating it if
// needed. Caller must hold b.mu.
func (b *Book) ensureQuote(ticker string) *Quote {
	q, ok := b.quotes[ticker]
	if !ok {
		q = &Quote{Ticker: ticker}
		b.quotes[ticker] = q
	}
	return q
}

// setPrice updates the resolved price and recomputes change against the
// cached baseline. The first observed price seeds a missing baseline, which
// yields change = 0 by construction. Caller must hold b.mu.
func (b *Book) setPrice(q *Quote, price float64, ts time.Time) {
	q.Price = price
	if ts.After(q.UpdatedAt) {
		q.UpdatedAt = ts
	}

	ref, ok := b.refClose[q.Ticker]
	if !ok {
		b.refClose[q.Ticker] = price
		b.seeded[q.Ticker] = true
		ref = price
	}
	q.Change, q.ChangePercent = changeAgainst(price, ref)
}

// changeAgainst computes change and changePercent, guarding the percent
// division against a zero baseline.
func changeAgainst(price, ref float64) (change, pct float64) {
	change = price - ref
	if ref != 0 {
		pct = change / ref * 100
	}
	return change, pct
}
