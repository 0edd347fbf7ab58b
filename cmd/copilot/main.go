package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/config"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/market"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/metrics"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/refresh"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/report"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/stream"
	"github.com/anuragjuneja87-bot/trading-copilot-sub004/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/copilot.local.yaml", "path to config file")
	ticker := flag.String("ticker", "", "initial tracked ticker (defaults to first configured)")
	flag.Parse()

	// Load configuration first so the log level can honor it.
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting copilot",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	tracked := *ticker
	if tracked == "" && len(cfg.Tickers) > 0 {
		tracked = cfg.Tickers[0]
	}
	if tracked == "" {
		logger.Error("no ticker to track: pass -ticker or configure tickers")
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	// Downstream clients
	reports := report.NewClient(
		cfg.Generator.URL,
		cfg.DataAPI.URL,
		cfg.DataAPI.APIKey,
		report.WithLogger(logger),
		// The client timeout must cover the slowest call (generation); the
		// faster data API reads are bounded by per-request contexts.
		report.WithTimeout(cfg.Generator.Timeout),
		report.WithRetries(cfg.DataAPI.MaxRetries, time.Second),
	)

	// Projection book and stream manager
	book := market.NewBook(logger)

	mgrCfg := stream.DefaultManagerConfig()
	mgrCfg.URL = cfg.Stream.URL
	mgrCfg.APIKey = cfg.Stream.APIKey
	mgrCfg.AuthTimeout = cfg.Stream.AuthTimeout
	mgrCfg.ReconnectBaseDelay = cfg.Stream.ReconnectBaseDelay
	mgrCfg.ReconnectMaxDelay = cfg.Stream.ReconnectMaxDelay
	mgrCfg.MaxReconnectAttempts = cfg.Stream.MaxReconnectAttempts
	mgrCfg.PingTimeout = cfg.Stream.PingTimeout
	mgrCfg.WriteTimeout = cfg.Stream.WriteTimeout
	mgrCfg.BufferSize = cfg.Stream.BufferSize

	manager := stream.NewManager(mgrCfg, book, met, logger)
	manager.Subscribe(cfg.Tickers...)

	logger.Info("starting stream manager", "url", cfg.Stream.URL, "tickers", cfg.Tickers)
	if err := manager.Start(ctx); err != nil {
		logger.Error("failed to start stream manager", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		manager.Stop(shutdownCtx)
	}()

	// Seed change baselines out of band; streaming continues regardless.
	seedBaselines(ctx, reports, book, cfg.Tickers, cfg.DataAPI.Timeout, logger)

	// Refresh scheduler
	schedCfg := refresh.Config{
		RegularInterval:   cfg.Refresh.RegularInterval,
		PreMarketInterval: cfg.Refresh.PreMarketInterval,
		SettleDelay:       cfg.Refresh.SettleDelay,
		RecoveryInterval:  cfg.Refresh.RecoveryInterval,
		GenerateTimeout:   cfg.Generator.Timeout,
	}
	scheduler := refresh.New(schedCfg, reports, book, refresh.NewBookSignals(book), met, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start refresh scheduler", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		scheduler.Stop(shutdownCtx)
	}()

	scheduler.Track(tracked)

	// Metrics and health server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/health", healthHandler(manager, scheduler, tracked))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("copilot running",
		"instance_id", cfg.Instance.ID,
		"tracked", tracked,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("copilot stopped")
}

// seedBaselines fetches previous closes for the configured tickers. Failure
// is non-fatal: the book seeds a provisional baseline from the first
// streamed price instead.
func seedBaselines(ctx context.Context, reports *report.Client, book *market.Book, tickers []string, timeout time.Duration, logger *slog.Logger) {
	for _, t := range tickers {
		fetchCtx, fetchCancel := context.WithTimeout(ctx, timeout)
		prev, err := reports.PreviousClose(fetchCtx, t)
		fetchCancel()

		if err != nil {
			logger.Warn("previous close unavailable, trying snapshot",
				"ticker", t,
				"error", err,
			)
			snapCtx, snapCancel := context.WithTimeout(ctx, timeout)
			snap, snapErr := reports.Snapshot(snapCtx, t)
			snapCancel()
			if snapErr != nil || snap.PrevClose <= 0 {
				logger.Warn("baseline unavailable, will seed from stream",
					"ticker", t,
					"error", snapErr,
				)
				continue
			}
			prev = snap.PrevClose
		}
		book.SetReferenceClose(t, prev)
		logger.Info("baseline seeded", "ticker", t, "prev_close", prev)
	}
}

// healthHandler reports connection and report freshness.
func healthHandler(manager *stream.Manager, scheduler *refresh.Scheduler, tracked string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		state := manager.State()
		conn := map[string]any{"state": state.String()}
		if err := manager.Err(); err != nil {
			conn["error"] = err.Error()
		}
		health.Components["stream"] = conn
		if state == stream.StateFailed {
			health.Status = "unhealthy"
		} else if state != stream.StateAuthenticated {
			health.Status = "degraded"
		}

		rep := map[string]any{
			"tracked": tracked,
			"state":   scheduler.State().String(),
		}
		if result, updated := scheduler.Result(); result != nil {
			rep["direction"] = result.Direction
			rep["updated_at"] = updated.Format(time.RFC3339)
		}
		if err := scheduler.Err(); err != nil {
			rep["error"] = err.Error()
		}
		health.Components["report"] = rep

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
