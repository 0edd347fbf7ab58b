package config

import "time"

// CopilotConfig is the root configuration for a copilot instance.
type CopilotConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Stream    StreamConfig    `yaml:"stream"`
	DataAPI   DataAPIConfig   `yaml:"data_api"`
	Generator GeneratorConfig `yaml:"generator"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Tickers   []string        `yaml:"tickers"` // initial desired subscription set
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InstanceConfig identifies this copilot.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// StreamConfig holds market-data WebSocket settings.
type StreamConfig struct {
	URL                  string        `yaml:"url"`
	APIKey               string        `yaml:"api_key"`
	AuthTimeout          time.Duration `yaml:"auth_timeout"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
}

// DataAPIConfig holds the REST data API used for baselines and snapshots.
type DataAPIConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// GeneratorConfig holds the report generator endpoint.
type GeneratorConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RefreshConfig holds report refresh scheduling settings.
type RefreshConfig struct {
	RegularInterval   time.Duration `yaml:"regular_interval"`
	PreMarketInterval time.Duration `yaml:"pre_market_interval"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	RecoveryInterval  time.Duration `yaml:"recovery_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
