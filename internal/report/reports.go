package report

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrEmptyBaseline indicates the data API had no previous-session bar.
var ErrEmptyBaseline = errors.New("no previous close available")

// Generate invokes the report generator once. The context bounds the call;
// cancellation surfaces as ctx.Err and must be treated as supersession, not
// failure.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.post(ctx, "/v1/reports/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("generate report for %s: %w", req.Ticker, err)
	}

	c.logger.Debug("report generated",
		"ticker", req.Ticker,
		"direction", resp.Direction,
	)
	return &resp, nil
}

// PreviousClose fetches the prior-session closing price used to seed the
// change/changePercent baseline. Called once per tracked ticker.
func (c *Client) PreviousClose(ctx context.Context, ticker string) (float64, error) {
	var resp prevCloseResponse
	path := "/v2/aggs/ticker/" + url.PathEscape(ticker) + "/prev"
	if err := c.getWithRetry(ctx, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("previous close for %s: %w", ticker, err)
	}

	if len(resp.Results) == 0 || resp.Results[0].Close <= 0 {
		return 0, ErrEmptyBaseline
	}
	return resp.Results[0].Close, nil
}

// Snapshot fetches the point-in-time ticker view, used for race recovery
// when streaming data has not yet produced a usable price.
func (c *Client) Snapshot(ctx context.Context, ticker string) (*TickerSnapshot, error) {
	var resp snapshotResponse
	path := "/v2/snapshot/locale/us/markets/stocks/tickers/" + url.PathEscape(ticker)
	if err := c.getWithRetry(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("snapshot for %s: %w", ticker, err)
	}

	return &TickerSnapshot{
		Ticker:           ticker,
		LastPrice:        resp.Ticker.LastTrade.Price,
		TodaysChange:     resp.Ticker.TodaysChange,
		TodaysChangePerc: resp.Ticker.TodaysChangePerc,
		PrevClose:        resp.Ticker.PrevDay.Close,
	}, nil
}
