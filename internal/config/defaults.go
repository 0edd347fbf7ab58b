package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultStreamURL            = "wss://socket.polygon.io/stocks"
	DefaultDataAPIURL           = "https://api.polygon.io"
	DefaultDataAPITimeout       = 10 * time.Second
	DefaultDataAPIMaxRetries    = 3
	DefaultGeneratorTimeout     = 20 * time.Second
	DefaultAuthTimeout          = 10 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 8
	DefaultPingTimeout          = 60 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 1024
	DefaultRegularInterval      = 3 * time.Minute
	DefaultPreMarketInterval    = 10 * time.Minute
	DefaultSettleDelay          = 1750 * time.Millisecond
	DefaultRecoveryInterval     = 1 * time.Second
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultLogLevel             = "info"
)

func (c *CopilotConfig) applyDefaults() {
	// Stream defaults
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.AuthTimeout == 0 {
		c.Stream.AuthTimeout = DefaultAuthTimeout
	}
	if c.Stream.ReconnectBaseDelay == 0 {
		c.Stream.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Stream.ReconnectMaxDelay == 0 {
		c.Stream.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Stream.MaxReconnectAttempts == 0 {
		c.Stream.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultBufferSize
	}

	// Data API defaults
	if c.DataAPI.URL == "" {
		c.DataAPI.URL = DefaultDataAPIURL
	}
	if c.DataAPI.Timeout == 0 {
		c.DataAPI.Timeout = DefaultDataAPITimeout
	}
	if c.DataAPI.MaxRetries == 0 {
		c.DataAPI.MaxRetries = DefaultDataAPIMaxRetries
	}
	if c.DataAPI.APIKey == "" {
		c.DataAPI.APIKey = c.Stream.APIKey
	}

	// Generator defaults
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = DefaultGeneratorTimeout
	}

	// Refresh defaults
	if c.Refresh.RegularInterval == 0 {
		c.Refresh.RegularInterval = DefaultRegularInterval
	}
	if c.Refresh.PreMarketInterval == 0 {
		c.Refresh.PreMarketInterval = DefaultPreMarketInterval
	}
	if c.Refresh.SettleDelay == 0 {
		c.Refresh.SettleDelay = DefaultSettleDelay
	}
	if c.Refresh.RecoveryInterval == 0 {
		c.Refresh.RecoveryInterval = DefaultRecoveryInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
