package refresh

import (
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/bias"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/market"
)

// BookSignals derives signal inputs from the live projection book. Only the
// price-derived categories can be computed here; flow and dark-pool inputs
// come from separate collaborators, and their absence simply excludes those
// categories from the fused score.
type BookSignals struct {
	book *market.Book
}

// NewBookSignals wraps a projection book as a SignalSource.
func NewBookSignals(book *market.Book) *BookSignals {
	return &BookSignals{book: book}
}

// Signals builds the current inputs for ticker. Missing observations stay
// nil so the engine can renormalize over what is actually known.
func (b *BookSignals) Signals(ticker string) bias.Inputs {
	var in bias.Inputs

	q, haveQuote := b.book.Snapshot(ticker)
	bar, haveBar := b.book.Bar(ticker)

	if haveQuote && q.Price > 0 {
		// Prefer the bar VWAP as the reference level, fall back to the
		// previous close.
		ref := 0.0
		if haveBar && bar.VWAP > 0 {
			ref = bar.VWAP
		} else if rc, ok := b.book.ReferenceClose(ticker); ok && rc > 0 {
			ref = rc
		}
		if ref > 0 {
			in.PriceVsRef = &bias.PriceVsRefSignal{
				DistancePercent: (q.Price - ref) / ref * 100,
			}
		}
	}

	if haveBar && bar.Open > 0 {
		in.Momentum = &bias.MomentumSignal{
			ChangePercent: (bar.Close - bar.Open) / bar.Open * 100,
		}
	}

	return in
}
