// Package refresh decides when the expensive, rate-limited report generator
// should be re-invoked, trading freshness against redundant calls.
//
// Triggers:
//   - manual refresh and ticker switches always fetch (the switch after a
//     short settle debounce);
//   - periodic timer fires fetch only when the discretized signal
//     fingerprint differs from the last accepted one.
//
// At most one logical fetch is outstanding per ticker; starting a new one
// aborts the previous via its context and a generation id, and a superseded
// result is discarded silently.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/bias"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/market"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/metrics"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/report"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/session"
)

// State is the scheduler's lifecycle state for the tracked ticker.
type State int

const (
	Idle State = iota
	Debouncing
	Fetching
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	default:
		return "idle"
	}
}

// Generator produces a report. Satisfied by *report.Client.
type Generator interface {
	Generate(ctx context.Context, req report.GenerateRequest) (*report.GenerateResponse, error)
}

// PriceSource supplies live projections and baselines. Satisfied by
// *market.Book.
type PriceSource interface {
	Snapshot(ticker string) (market.Quote, bool)
	ReferenceClose(ticker string) (float64, bool)
}

// SignalSource supplies the current signal inputs for a ticker, gathered
// from the flow/dark-pool/volatility collaborators.
type SignalSource interface {
	Signals(ticker string) bias.Inputs
}

// Config holds scheduler tuning.
type Config struct {
	RegularInterval   time.Duration // periodic cadence during continuous trading
	PreMarketInterval time.Duration // periodic cadence pre-open
	SettleDelay       time.Duration // ticker-switch debounce window
	GenerateTimeout   time.Duration // bound on one generation call
	RecoveryInterval  time.Duration // price-availability recheck cadence
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RegularInterval:   3 * time.Minute,
		PreMarketInterval: 10 * time.Minute,
		SettleDelay:       1750 * time.Millisecond,
		GenerateTimeout:   20 * time.Second,
		RecoveryInterval:  time.Second,
	}
}

// Scheduler gates and supervises generation calls for one tracked ticker.
type Scheduler struct {
	cfg     Config
	gen     Generator
	prices  PriceSource
	signals SignalSource
	logger  *slog.Logger
	met     *metrics.Metrics

	// classify is the session clock; swapped out in tests.
	classify func(time.Time) session.Session

	mu              sync.Mutex
	ticker          string
	state           State
	lastFingerprint string // last accepted fingerprint
	lastUpdated     time.Time
	lastResult      *report.GenerateResponse
	lastErr         error
	genID           uuid.UUID          // identity of the in-flight call
	abort           context.CancelFunc // abort handle for the in-flight call
	debounce        *time.Timer
	pendingRetry    bool // a skipped attempt awaits price availability
	retried         bool // the single forced retry was consumed
	nextPoll        time.Time

	wakeCh chan struct{} // nudges the run loop to recompute its wake-up

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. met may be nil.
func New(cfg Config, gen Generator, prices PriceSource, signals SignalSource, met *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		gen:      gen,
		prices:   prices,
		signals:  signals,
		logger:   logger,
		met:      met,
		classify: session.Classify,
		wakeCh:   make(chan struct{}, 1),
	}
}

// Start launches the timer loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("refresh scheduler started",
		"regular_interval", s.cfg.RegularInterval,
		"settle_delay", s.cfg.SettleDelay,
	)
	return nil
}

// Stop aborts any in-flight call and shuts the loop down.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Track switches the tracked ticker. Displayed state clears immediately;
// the fetch itself waits out the settle window so dependent data can
// populate. A second switch inside the window restarts it (last write
// wins), so rapid back-and-forth yields at most one fetch.
func (s *Scheduler) Track(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == ticker {
		return
	}
	s.ticker = ticker

	// Full RefreshState reset.
	s.lastResult = nil
	s.lastErr = nil
	s.lastFingerprint = ""
	s.lastUpdated = time.Time{}
	s.pendingRetry = false
	s.retried = false
	s.abortLocked()

	s.state = Debouncing
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.cfg.SettleDelay, func() {
		s.startFetch(ticker, true)
	})

	s.logger.Debug("tracking ticker", "ticker", ticker, "settle", s.cfg.SettleDelay)
}

// kick nudges the run loop out of a long sleep so it recomputes its wake-up.
func (s *Scheduler) kick() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Refresh forces an immediate fetch for the tracked ticker, bypassing the
// fingerprint gate.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	ticker := s.ticker
	s.mu.Unlock()
	if ticker == "" {
		return
	}
	s.startFetch(ticker, true)
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last accepted report and its timestamp.
func (s *Scheduler) Result() (*report.GenerateResponse, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult, s.lastUpdated
}

// Err returns the recoverable error of the most recent failed call, if the
// failure has not been superseded by a success. A prior successful result
// stays visible alongside it.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// run is the timer loop. Cadence follows the trading session: short during
// continuous trading, long pre-open, none when closed (one-shot on load
// only). While a skipped fetch awaits price data, the loop wakes faster to
// catch the transition.
func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		now := time.Now()
		interval := s.intervalFor(s.classify(now))

		s.mu.Lock()
		if interval > 0 && s.nextPoll.IsZero() {
			s.nextPoll = now.Add(interval)
		}
		if interval == 0 {
			s.nextPoll = time.Time{}
		}
		next := s.nextPoll
		pending := s.pendingRetry
		s.mu.Unlock()

		wake := s.wakeAfter(now, next, interval, pending)

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wake):
		case <-s.wakeCh:
		}

		s.recoverIfPriceArrived()

		if interval > 0 && !next.IsZero() && !time.Now().Before(next) {
			s.mu.Lock()
			ticker := s.ticker
			s.nextPoll = time.Now().Add(interval)
			s.mu.Unlock()
			if ticker != "" {
				s.startFetch(ticker, false)
			}
		}
	}
}

// wakeAfter picks the next wake-up: the poll deadline, the recovery
// recheck, or — with no periodic timer — the next session open.
func (s *Scheduler) wakeAfter(now time.Time, next time.Time, interval time.Duration, pending bool) time.Duration {
	var wake time.Duration
	switch {
	case !next.IsZero():
		wake = time.Until(next)
	default:
		wake = time.Until(session.NextOpen(now))
		if wake > 10*time.Minute {
			wake = 10 * time.Minute
		}
	}
	if pending && s.cfg.RecoveryInterval < wake {
		wake = s.cfg.RecoveryInterval
	}
	if wake < 10*time.Millisecond {
		wake = 10 * time.Millisecond
	}
	return wake
}

func (s *Scheduler) intervalFor(sess session.Session) time.Duration {
	switch sess {
	case session.Regular:
		return s.cfg.RegularInterval
	case session.PreMarket:
		return s.cfg.PreMarketInterval
	default:
		return 0
	}
}

// recoverIfPriceArrived fires the single forced retry once a usable price
// shows up after an earlier attempt was skipped outright.
func (s *Scheduler) recoverIfPriceArrived() {
	s.mu.Lock()
	ticker := s.ticker
	eligible := s.pendingRetry && !s.retried && ticker != ""
	s.mu.Unlock()

	if !eligible || !s.hasUsablePrice(ticker) {
		return
	}

	s.mu.Lock()
	s.pendingRetry = false
	s.retried = true
	s.mu.Unlock()

	s.logger.Debug("price became available, forcing retry", "ticker", ticker)
	s.startFetch(ticker, true)
}

func (s *Scheduler) hasUsablePrice(ticker string) bool {
	if q, ok := s.prices.Snapshot(ticker); ok && q.Price > 0 {
		return true
	}
	_, ok := s.prices.ReferenceClose(ticker)
	return ok
}

// startFetch runs the precondition gate, the fingerprint gate (unless
// forced), supersedes any in-flight call, and launches the generation.
func (s *Scheduler) startFetch(ticker string, forced bool) {
	s.mu.Lock()

	if s.ticker != ticker {
		// Stale debounce or timer firing for a superseded ticker.
		s.mu.Unlock()
		return
	}

	if !s.hasUsablePriceLocked(ticker) {
		// Degenerate input: skip outright, not an error. A later price
		// arrival triggers one forced retry.
		s.pendingRetry = true
		s.state = Idle
		s.mu.Unlock()
		s.kick()
		s.logger.Debug("generation skipped, no usable price", "ticker", ticker)
		return
	}

	in := s.signals.Signals(ticker)
	fp := bias.Fingerprint(in)
	if !forced && fp == s.lastFingerprint {
		s.state = Idle
		s.mu.Unlock()
		if s.met != nil {
			s.met.GateSkips.Inc()
		}
		s.logger.Debug("generation gated, fingerprint unchanged", "ticker", ticker)
		return
	}

	// Supersede: at most one outstanding call.
	s.abortLocked()

	id := uuid.New()
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.GenerateTimeout)
	s.genID = id
	s.abort = cancel
	s.state = Fetching

	req := s.buildRequestLocked(ticker, in)
	s.mu.Unlock()

	if s.met != nil {
		s.met.GenerationCalls.Inc()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		start := time.Now()
		resp, err := s.gen.Generate(ctx, req)
		if s.met != nil {
			s.met.GenerationDur.Observe(time.Since(start).Seconds())
		}
		s.complete(id, fp, resp, err)
	}()
}

// hasUsablePriceLocked mirrors hasUsablePrice under s.mu.
func (s *Scheduler) hasUsablePriceLocked(ticker string) bool {
	if q, ok := s.prices.Snapshot(ticker); ok && q.Price > 0 {
		return true
	}
	_, ok := s.prices.ReferenceClose(ticker)
	return ok
}

// buildRequestLocked assembles the generation payload. Caller holds s.mu.
func (s *Scheduler) buildRequestLocked(ticker string, in bias.Inputs) report.GenerateRequest {
	q, _ := s.prices.Snapshot(ticker)
	ref, _ := s.prices.ReferenceClose(ticker)

	price := q.Price
	if price <= 0 {
		price = ref
	}

	res := bias.Compute(in)
	signals := make(map[string]string, 6)
	for name, st := range bias.Statuses(in) {
		signals[name] = string(st)
	}
	vals := map[string]float64{
		"bias_score": float64(res.Score),
	}
	for _, c := range res.Components {
		vals[c.Name] = c.Subscore
	}

	var levels []float64
	if ref > 0 {
		levels = append(levels, ref)
	}

	return report.GenerateRequest{
		Ticker:         ticker,
		Price:          price,
		ChangePercent:  q.ChangePercent,
		ReferenceClose: ref,
		Session:        s.classify(time.Now()).String(),
		Signals:        signals,
		Metrics:        vals,
		KeyLevels:      levels,
	}
}

// complete records the outcome of a generation call. A stale generation id
// means the call was superseded; its result is discarded silently.
func (s *Scheduler) complete(id uuid.UUID, fp string, resp *report.GenerateResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.genID != id {
		if s.met != nil {
			s.met.GenerationAborts.Inc()
		}
		s.logger.Debug("discarding superseded generation result")
		return
	}

	s.abort = nil
	s.state = Idle

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Aborted, not user-visible.
			if s.met != nil {
				s.met.GenerationAborts.Inc()
			}
			return
		}
		// Recoverable: surface the error, keep the previous result visible.
		s.lastErr = err
		if s.met != nil {
			s.met.GenerationErrors.Inc()
		}
		s.logger.Warn("generation failed", "ticker", s.ticker, "error", err)
		return
	}

	s.lastResult = resp
	s.lastErr = nil
	s.lastFingerprint = fp
	s.lastUpdated = time.Now()
	s.logger.Info("report accepted", "ticker", s.ticker, "direction", resp.Direction)
}

// abortLocked cancels the in-flight call, if any. Caller holds s.mu.
func (s *Scheduler) abortLocked() {
	if s.abort == nil {
		return
	}
	s.abort()
	s.abort = nil
	s.genID = uuid.Nil
}
