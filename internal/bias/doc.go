// Package bias fuses sparse, partially-missing market signals into a single
// 0-100 directional score.
//
// Compute is pure: categories that fail their confidence predicate are
// excluded outright (not scored as neutral), the remaining nominal weights
// are renormalized proportionally, and the weighted subscores aggregate into
// one score with a BULLISH / BEARISH / NEUTRAL discretization. Fingerprint
// produces a stable serialization of the discretized per-category statuses,
// which the refresh scheduler uses to detect "nothing material changed."
package bias
