// Package market holds the per-ticker projections built from streamed
// quote, trade, and aggregate events.
//
// Design principles:
//   - One unified Quote projection per ticker, regardless of which event
//     type produced the latest update.
//   - All mutation goes through the Book, which guards its maps with a
//     mutex; callers never touch shared state directly.
//   - Prices: last trade preferred, bid/ask midpoint next, either side last.
//     A zero-resolved price is an invalid observation and is dropped.
package market
