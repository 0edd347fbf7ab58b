package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/market"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/metrics"
)

// Manager owns the socket lifecycle: open, authenticate, subscribe,
// detect abnormal closure, reconnect with backoff. A single event loop
// drives the state machine; all socket writes funnel through one
// ready-to-send check so lifecycle and data frames never interleave.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	book   *market.Book
	subs   *SubscriptionSet
	demux  *Demux
	met    *metrics.Metrics

	// dial is the client factory; swapped out in tests.
	dial func() Client

	mu      sync.Mutex
	state   State
	client  Client
	lastErr error
	// Consecutive failed connect attempts. Reset only on successful open,
	// never on message receipt.
	attempts int
	running  bool

	retryCh chan struct{} // manual reconnect requests from Failed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a connection Manager folding data into book.
// met may be nil.
func NewManager(cfg ManagerConfig, book *market.Book, met *metrics.Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		book:    book,
		subs:    NewSubscriptionSet(),
		demux:   NewDemux(book, met, logger),
		met:     met,
		retryCh: make(chan struct{}, 1),
	}
	m.dial = func() Client {
		return NewClient(ClientConfig{
			URL:          cfg.URL,
			PingTimeout:  cfg.PingTimeout,
			WriteTimeout: cfg.WriteTimeout,
			BufferSize:   cfg.BufferSize,
		}, logger)
	}
	return m
}

// Start launches the connection loop. It is a no-op if the manager is
// already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("connection manager started", "url", m.cfg.URL)
	return nil
}

// Stop shuts the manager down and closes any open socket.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, forcing close")
	}

	m.mu.Lock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.running = false
	m.mu.Unlock()

	m.setState(StateDisconnected, nil)
	m.logger.Info("connection manager stopped")
	return nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error behind a Reconnecting or Failed state.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Book returns the projection store owned by this manager.
func (m *Manager) Book() *market.Book {
	return m.book
}

// Subscribed reports whether a ticker is in the desired set.
func (m *Manager) Subscribed(ticker string) bool {
	return m.subs.Has(ticker)
}

// Subscribe adds tickers to the desired set. Before authentication the
// request is queued; afterwards a subscribe frame for the new tickers goes
// out immediately. Already-desired tickers are filtered before any frame is
// built.
func (m *Manager) Subscribe(tickers ...string) {
	added := m.subs.Add(tickers...)
	m.gaugeDesired()
	if len(added) == 0 {
		return
	}

	if !m.trySend("subscribe", added) {
		m.subs.Enqueue(added...)
	}
}

// Unsubscribe removes tickers from the desired set, discards their
// projections, and emits an unsubscribe frame when connected.
func (m *Manager) Unsubscribe(tickers ...string) {
	removed := m.subs.Remove(tickers...)
	m.gaugeDesired()
	if len(removed) == 0 {
		return
	}

	for _, t := range removed {
		m.book.Drop(t)
	}
	m.trySend("unsubscribe", removed)
}

// Reconnect requests a manual retry after the terminal Failed state.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	select {
	case m.retryCh <- struct{}{}:
	default:
	}
}

// run is the connection event loop.
func (m *Manager) run() {
	defer m.wg.Done()

	for {
		if m.ctx.Err() != nil {
			return
		}

		client, err := m.open()
		if err != nil {
			m.logger.Warn("connect failed", "error", err)
			if !m.backoffOrFail(err) {
				return
			}
			continue
		}

		err = m.serve(client)
		client.Close()
		m.mu.Lock()
		m.client = nil
		m.mu.Unlock()

		if m.ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrAuthFailed) {
			// Credential rejection is a distinct, non-recoverable error
			// class; never retried automatically.
			m.setState(StateFailed, err)
			if !m.awaitManualRetry() {
				return
			}
			continue
		}

		m.logger.Warn("connection lost", "error", err)
		m.setState(StateReconnecting, err)
		if m.met != nil {
			m.met.Reconnects.Inc()
		}
		if !m.backoffOrFail(err) {
			return
		}
	}
}

// open dials the socket and sends the auth frame. The attempt counter
// resets only here, on a successful open.
func (m *Manager) open() (Client, error) {
	m.setState(StateConnecting, nil)

	client := m.dial()
	if err := client.Connect(m.ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.client = client
	m.attempts = 0
	m.mu.Unlock()
	m.setState(StateConnected, nil)

	frame, _ := json.Marshal(ControlFrame{Action: "auth", Params: m.cfg.APIKey})
	if err := client.Send(frame); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// serve processes frames until the connection errors, auth fails, or the
// manager stops. Frames are handled in network-arrival order.
func (m *Manager) serve(client Client) error {
	authTimer := time.NewTimer(m.cfg.AuthTimeout)
	defer authTimer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()

		case <-authTimer.C:
			if m.State() != StateAuthenticated {
				return ErrAuthTimeout
			}

		case err := <-client.Errors():
			return err

		case msg, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}
			for _, st := range m.demux.Apply(msg.Data) {
				switch st.Status {
				case StatusAuthSuccess:
					m.onAuthenticated()
				case StatusAuthFailed:
					return ErrAuthFailed
				case StatusConnected, StatusSuccess:
					m.logger.Debug("status event", "status", st.Status, "message", st.Message)
				default:
					m.logger.Debug("unrecognized status", "status", st.Status)
				}
			}
		}
	}
}

// onAuthenticated flips to Authenticated, drains the pending queue, and
// resends the entire desired set in one batched frame. The server retains
// no subscription state across drops, so the full set always goes out.
func (m *Manager) onAuthenticated() {
	m.setState(StateAuthenticated, nil)
	m.subs.Flush()

	desired := m.subs.Desired()
	if len(desired) == 0 {
		return
	}
	if m.trySend("subscribe", desired) {
		m.logger.Info("subscriptions restored", "tickers", len(desired))
	}
}

// trySend builds and sends a control frame if the session is ready. The
// readiness check and the client handle are taken under one lock so writes
// cannot race a reconnect swap.
func (m *Manager) trySend(action string, tickers []string) bool {
	m.mu.Lock()
	client := m.client
	ready := m.state == StateAuthenticated && client != nil
	m.mu.Unlock()

	if !ready {
		return false
	}

	frame, _ := json.Marshal(ControlFrame{Action: action, Params: subscriptionParams(tickers)})
	if err := client.Send(frame); err != nil {
		m.logger.Warn("control frame send failed", "action", action, "error", err)
		return false
	}

	m.logger.Debug("control frame sent", "action", action, "tickers", len(tickers))
	return true
}

// backoffOrFail sleeps min(base*2^attempt, cap) with jitter before the next
// attempt. Once the cap on consecutive failures is exceeded the state moves
// permanently to Failed and only a manual Reconnect resumes. Returns false
// when the manager should stop.
func (m *Manager) backoffOrFail(cause error) bool {
	m.mu.Lock()
	attempt := m.attempts
	m.attempts++
	m.mu.Unlock()

	if attempt >= m.cfg.MaxReconnectAttempts {
		m.setState(StateFailed, errors.Join(ErrReconnectExhausted, cause))
		return m.awaitManualRetry()
	}

	delay := m.cfg.ReconnectBaseDelay << attempt
	if delay > m.cfg.ReconnectMaxDelay {
		delay = m.cfg.ReconnectMaxDelay
	}
	// Half-to-full jitter: delay/2 + rand(delay).
	jittered := delay/2 + time.Duration(rand.Int63n(int64(delay)))

	m.logger.Info("scheduling reconnect",
		"attempt", attempt+1,
		"delay", jittered,
	)

	select {
	case <-m.ctx.Done():
		return false
	case <-time.After(jittered):
		return true
	}
}

// awaitManualRetry parks in Failed until Reconnect or shutdown.
func (m *Manager) awaitManualRetry() bool {
	select {
	case <-m.ctx.Done():
		return false
	case <-m.retryCh:
		m.logger.Info("manual reconnect requested")
		return true
	}
}

// setState records a transition and surfaces it to logs and metrics.
func (m *Manager) setState(s State, err error) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	if err != nil || s == StateAuthenticated || s == StateDisconnected {
		m.lastErr = err
	}
	m.mu.Unlock()

	if prev != s {
		m.logger.Info("connection state", "from", prev, "to", s)
	}
	if m.met != nil {
		m.met.ConnectionState.Set(float64(s))
	}
}

func (m *Manager) gaugeDesired() {
	if m.met != nil {
		m.met.DesiredTickers.Set(float64(m.subs.Len()))
	}
}
