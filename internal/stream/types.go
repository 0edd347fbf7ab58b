package stream

import (
	"errors"
	"time"
)

// Errors
var (
	// ErrNotConnected is returned by Send when no socket is open.
	ErrNotConnected = errors.New("not connected")

	// ErrStaleConnection indicates the ping watchdog gave up on the socket.
	ErrStaleConnection = errors.New("connection stale (no ping)")

	// ErrAlreadyClosed is returned when reusing a closed client.
	ErrAlreadyClosed = errors.New("already closed")

	// ErrAuthFailed is terminal: the server rejected our credentials.
	// Never retried automatically.
	ErrAuthFailed = errors.New("authentication rejected")

	// ErrAuthTimeout indicates no auth result arrived in time. Transient.
	ErrAuthTimeout = errors.New("timed out waiting for auth result")

	// ErrReconnectExhausted is terminal: the attempt cap was exceeded.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected // socket open, not yet authenticated
	StateAuthenticated
	StateReconnecting
	StateFailed // terminal; manual Reconnect required
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TimestampedMessage wraps raw frame bytes with a local receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ControlFrame is an outbound command: auth, subscribe, or unsubscribe.
type ControlFrame struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// eventHeader carries just the "ev" discriminator, probed before the full
// per-type parse. Frames arrive as JSON arrays of event objects.
type eventHeader struct {
	Type string `json:"ev"`
}

// StatusEvent is a lifecycle event from the provider.
type StatusEvent struct {
	Type    string `json:"ev"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QuoteEvent is a bid/ask update (ev=Q).
type QuoteEvent struct {
	Type      string  `json:"ev"`
	Ticker    string  `json:"sym"`
	BidPrice  float64 `json:"bp"`
	BidSize   int64   `json:"bs"`
	AskPrice  float64 `json:"ap"`
	AskSize   int64   `json:"as"`
	Timestamp int64   `json:"t"` // ms since epoch
}

// TradeEvent is an executed trade (ev=T).
type TradeEvent struct {
	Type       string  `json:"ev"`
	Ticker     string  `json:"sym"`
	Price      float64 `json:"p"`
	Size       int64   `json:"s"`
	Conditions []int   `json:"c"`
	Timestamp  int64   `json:"t"` // ms since epoch
}

// AggregateEvent is one bar window (ev=A or AM).
type AggregateEvent struct {
	Type        string  `json:"ev"`
	Ticker      string  `json:"sym"`
	Open        float64 `json:"o"`
	High        float64 `json:"h"`
	Low         float64 `json:"l"`
	Close       float64 `json:"c"`
	Volume      int64   `json:"v"`
	VWAP        float64 `json:"vw"`
	WindowStart int64   `json:"s"` // ms since epoch
	WindowEnd   int64   `json:"e"` // ms since epoch
}

// Status event values.
const (
	StatusConnected   = "connected"
	StatusAuthSuccess = "auth_success"
	StatusAuthFailed  = "auth_failed"
	StatusSuccess     = "success"
)

// Channel prefixes for wire subscription params ("<TYPE>.<TICKER>").
var channelTypes = []string{"T", "Q", "A"}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Provider WebSocket URL
	PingTimeout  time.Duration // Max silence before the socket is declared stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   4096,
	}
}

// ManagerConfig configures the connection Manager.
type ManagerConfig struct {
	URL                  string        // Provider WebSocket URL
	APIKey               string        // Credential sent in the auth frame
	AuthTimeout          time.Duration // Max wait for auth_success after open
	ReconnectBaseDelay   time.Duration // Base backoff delay
	ReconnectMaxDelay    time.Duration // Backoff cap
	MaxReconnectAttempts int           // Consecutive failures before Failed
	PingTimeout          time.Duration
	WriteTimeout         time.Duration
	BufferSize           int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		AuthTimeout:          10 * time.Second,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 8,
		PingTimeout:          60 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           4096,
	}
}
