package report

import (
	"log/slog"
	"net/http"
	"time"
)

// Client provides access to the report generator and the snapshot API.
type Client struct {
	generatorURL string
	dataURL      string
	apiKey       string
	httpClient   *http.Client
	logger       *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST client. generatorURL serves report
// generation; dataURL serves previous-close and snapshot reads.
func NewClient(generatorURL, dataURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		generatorURL: generatorURL,
		dataURL:      dataURL,
		apiKey:       apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration for snapshot reads.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
