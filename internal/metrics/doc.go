// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - WebSocket connection state, reconnects, and frame rates
//   - Subscription counts
//   - Report generation calls, aborts, gate skips, and latencies
package metrics
