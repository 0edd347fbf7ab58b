package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the stream core.
type Metrics struct {
	// Stream layer
	FramesTotal     *prometheus.CounterVec // labels: event (status, Q, T, A, AM)
	FramesDropped   prometheus.Counter     // malformed or unrecognized frames
	Reconnects      prometheus.Counter
	ConnectionState prometheus.Gauge // numeric connection state enum
	DesiredTickers  prometheus.Gauge

	// Refresh scheduler
	GenerationCalls  prometheus.Counter
	GenerationAborts prometheus.Counter // superseded in-flight calls
	GenerationErrors prometheus.Counter
	GateSkips        prometheus.Counter // timer fires gated by unchanged fingerprint
	GenerationDur    prometheus.Histogram
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_frames_total",
			Help: "Inbound stream events by type.",
		}, []string{"event"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_frames_dropped_total",
			Help: "Malformed or unrecognized frames dropped.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_ws_reconnects_total",
			Help: "WebSocket reconnection attempts.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "copilot_ws_connection_state",
			Help: "Connection state (0=disconnected 1=connecting 2=connected 3=authenticated 4=reconnecting 5=failed).",
		}),
		DesiredTickers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "copilot_desired_tickers",
			Help: "Tickers in the desired subscription set.",
		}),
		GenerationCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_generation_calls_total",
			Help: "Downstream report generation calls started.",
		}),
		GenerationAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_generation_aborts_total",
			Help: "Generation calls aborted by supersession.",
		}),
		GenerationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_generation_errors_total",
			Help: "Generation calls that returned an error.",
		}),
		GateSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "copilot_gate_skips_total",
			Help: "Periodic refreshes skipped because the signal fingerprint was unchanged.",
		}),
		GenerationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "copilot_generation_duration_seconds",
			Help:    "Latency of downstream generation calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	reg.MustRegister(
		m.FramesTotal,
		m.FramesDropped,
		m.Reconnects,
		m.ConnectionState,
		m.DesiredTickers,
		m.GenerationCalls,
		m.GenerationAborts,
		m.GenerationErrors,
		m.GateSkips,
		m.GenerationDur,
	)

	return m
}
