// Package report talks to the two REST collaborators of the stream core:
// the rate-limited report generator, and the market-data snapshot endpoints
// that seed the change/changePercent baseline.
//
// Snapshot reads retry with capped jittered backoff; generation calls do
// not retry (they are expensive and supersession handles staleness), they
// only honor context cancellation and the bounded timeout.
package report
