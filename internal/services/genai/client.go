package genai

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"storyreel/internal/config"
	"storyreel/internal/logging"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 1
	defaultPollInterval   = 10 * time.Second
	defaultVideoTimeout   = 15 * time.Minute
)

// Config captures the runtime settings required to talk to the generative API.
type Config struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	ImageModel     string
	ImageSize      string
	VideoModel     string
	VideoSeconds   int
	TimeoutSeconds int
	PollInterval   time.Duration
	VideoTimeout   time.Duration
}

// Client wraps the chat, image, and video endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
	api        openai.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the attempt count (defaults to 1).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry and poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.VideoTimeout <= 0 {
		cfg.VideoTimeout = defaultVideoTimeout
	}
	if cfg.VideoSeconds <= 0 {
		cfg.VideoSeconds = 4
	}

	client := &Client{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	client.logger = logging.NewComponentLogger(client.logger, "genai")
	client.api = openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL+"/"),
		option.WithHTTPClient(client.httpClient),
		option.WithMaxRetries(0),
	)
	return client
}

// FromConfig builds a client from the application configuration.
func FromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{WithRetryMaxAttempts(cfg.GenAI.RetryAttempts)}
	return NewClient(Config{
		APIKey:         cfg.GenAI.APIKey,
		BaseURL:        cfg.GenAI.BaseURL,
		TextModel:      cfg.GenAI.TextModel,
		ImageModel:     cfg.GenAI.ImageModel,
		ImageSize:      cfg.GenAI.ImageSize,
		VideoModel:     cfg.GenAI.VideoModel,
		VideoSeconds:   cfg.GenAI.VideoSeconds,
		TimeoutSeconds: cfg.GenAI.TimeoutSeconds,
		PollInterval:   time.Duration(cfg.GenAI.VideoPollInterval) * time.Second,
		VideoTimeout:   time.Duration(cfg.GenAI.VideoTimeout) * time.Second,
	}, append(base, opts...)...)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) requireKey(op string) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingAPIKey)
	}
	return nil
}

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("api key required")
