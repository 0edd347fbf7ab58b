// Package stream maintains the persistent WebSocket session with the
// market-data provider.
//
// Three cooperating pieces:
//   - Client: one raw WebSocket connection (dial, serialized writes,
//     ping/pong staleness watchdog).
//   - Manager: the connect/auth/subscribe/reconnect state machine, driven
//     by a single event loop. Owns the market.Book that all inbound data
//     folds into.
//   - SubscriptionSet: the desired ticker set (source of truth) plus the
//     pre-auth pending queue. After every re-auth the entire desired set is
//     resent, because the server keeps no subscription state across drops.
//
// Inbound frames are JSON arrays of event objects discriminated by "ev":
// lifecycle status events, quotes (Q), trades (T), and aggregates (A/AM).
package stream
