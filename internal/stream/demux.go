package stream

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/market"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/metrics"
)

// Demux classifies inbound frames by event type and folds data events into
// the per-ticker projections. Status events are returned to the caller (the
// Manager's event loop) to drive the connection state machine.
//
// Malformed or unrecognized events are dropped and logged; they never
// terminate the stream.
type Demux struct {
	book   *market.Book
	logger *slog.Logger
	met    *metrics.Metrics
}

// NewDemux creates a Demux writing into book. met may be nil.
func NewDemux(book *market.Book, met *metrics.Metrics, logger *slog.Logger) *Demux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Demux{book: book, logger: logger, met: met}
}

// Apply processes one raw frame (a JSON array of event objects) and returns
// any status events it contained.
func (d *Demux) Apply(data []byte) []StatusEvent {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		d.logger.Warn("malformed frame, dropping", "error", err)
		d.dropped()
		return nil
	}

	var statuses []StatusEvent
	for _, ev := range raw {
		var hdr eventHeader
		if err := json.Unmarshal(ev, &hdr); err != nil {
			d.logger.Warn("malformed event, dropping", "error", err)
			d.dropped()
			continue
		}

		switch hdr.Type {
		case "status":
			var se StatusEvent
			if err := json.Unmarshal(ev, &se); err != nil {
				d.logger.Warn("malformed status event, dropping", "error", err)
				d.dropped()
				continue
			}
			statuses = append(statuses, se)

		case "Q":
			var qe QuoteEvent
			if err := json.Unmarshal(ev, &qe); err != nil {
				d.logger.Warn("malformed quote event, dropping", "error", err)
				d.dropped()
				continue
			}
			d.book.ApplyQuote(qe.Ticker, qe.BidPrice, qe.AskPrice, qe.BidSize, qe.AskSize, msTime(qe.Timestamp))

		case "T":
			var te TradeEvent
			if err := json.Unmarshal(ev, &te); err != nil {
				d.logger.Warn("malformed trade event, dropping", "error", err)
				d.dropped()
				continue
			}
			d.book.ApplyTrade(market.Trade{
				Ticker:     te.Ticker,
				Price:      te.Price,
				Size:       te.Size,
				Conditions: te.Conditions,
				Timestamp:  msTime(te.Timestamp),
			})

		case "A", "AM":
			var ae AggregateEvent
			if err := json.Unmarshal(ev, &ae); err != nil {
				d.logger.Warn("malformed aggregate event, dropping", "error", err)
				d.dropped()
				continue
			}
			d.book.ApplyAggregate(market.Aggregate{
				Ticker:    ae.Ticker,
				Open:      ae.Open,
				High:      ae.High,
				Low:       ae.Low,
				Close:     ae.Close,
				Volume:    ae.Volume,
				VWAP:      ae.VWAP,
				WindowEnd: msTime(ae.WindowEnd),
			})

		default:
			d.logger.Debug("unrecognized event type, dropping", "type", hdr.Type)
			d.dropped()
			continue
		}

		if d.met != nil {
			d.met.FramesTotal.WithLabelValues(hdr.Type).Inc()
		}
	}

	return statuses
}

func (d *Demux) dropped() {
	if d.met != nil {
		d.met.FramesDropped.Inc()
	}
}

func msTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
