// package notion provides a resilient HTTP client for the Notion API.
// It layers authentication (integration tokens and OAuth2 with refresh),
// client-side rate limiting, retry with exponential backoff, cursor-based
// pagination, and typed resource endpoints on top of a pooled HTTP transport.
//
// Example:
//
//	client, err := NewFromToken(os.Getenv("NOTION_API_TOKEN"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	page, err := client.Pages().Get(ctx, pageID)
package notion

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/phuslu/log"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the Notion API client.
// Zero values are filled with production defaults by Validate.
type Config struct {
	// Auth supplies request credentials. Takes precedence over Token.
	Auth AuthProvider `yaml:"-"`

	// Token is a Notion integration token, used to build an IntegrationAuth
	// when Auth is nil.
	Token string `yaml:"token"`

	// BaseURL is the base URL for the Notion API.
	// Defaults to "https://api.notion.com/v1" if not specified.
	BaseURL string `yaml:"base_url"`

	// Version is the Notion-Version header value.
	// Defaults to "2022-06-28" if not specified.
	Version string `yaml:"version"`

	// Timeout is the HTTP request timeout duration.
	// Defaults to 30 seconds if not specified.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for failed requests.
	// Defaults to 3 if not specified.
	MaxRetries int `yaml:"max_retries"`

	// BaseBackoff is the initial backoff duration for retries.
	// Defaults to 1 second if not specified.
	BaseBackoff time.Duration `yaml:"base_backoff"`

	// MaxBackoff is the maximum backoff duration for retries.
	// Defaults to 30 seconds if not specified.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Defaults to 2.0 if not specified.
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`

	// RequestsPerSecond caps the outgoing request rate. Every request blocks
	// on the limiter before hitting the wire. Defaults to 3, matching
	// Notion's documented average rate limit.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Concurrency bounds the worker pool used by multi-get helpers.
	// Defaults to 10 if not specified.
	Concurrency int `yaml:"concurrency"`

	// MaxIdleConns is the maximum number of idle HTTP connections to maintain.
	// Defaults to 100 if not specified.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Defaults to 10 if not specified.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is the maximum time an idle connection can remain open.
	// Defaults to 90 seconds if not specified.
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// PageSize is the default page size for paginated requests.
	// Defaults to 100 if not specified (Notion's maximum).
	PageSize int `yaml:"page_size"`

	// RateLimitBuffer is added to server-provided Retry-After delays to
	// absorb clock skew. Defaults to 100 milliseconds if not specified.
	RateLimitBuffer time.Duration `yaml:"rate_limit_buffer"`

	// EnableMetrics enables in-process request counters and latency tracking.
	// Defaults to false.
	EnableMetrics bool `yaml:"enable_metrics"`

	// UserAgent is the User-Agent header to send with requests.
	// Defaults to "notion-go-client/1.0" if not specified.
	UserAgent string `yaml:"user_agent"`

	// CustomHeaders are additional headers to send with all requests.
	CustomHeaders map[string]string `yaml:"custom_headers"`

	// BufferSize is the size of internal channels used for streaming.
	// Defaults to 100 if not specified.
	BufferSize int `yaml:"buffer_size"`

	// Logger receives structured client events. Defaults to a console writer
	// at info level when unset.
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration with production defaults.
// Callers set Token or Auth and customize the rest as needed.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://api.notion.com/v1",
		Version:             "2022-06-28",
		Timeout:             30 * time.Second,
		MaxRetries:          3,
		BaseBackoff:         1 * time.Second,
		MaxBackoff:          30 * time.Second,
		BackoffMultiplier:   2.0,
		RequestsPerSecond:   3,
		Concurrency:         10,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		PageSize:            100,
		RateLimitBuffer:     100 * time.Millisecond,
		UserAgent:           "notion-go-client/1.0",
		CustomHeaders:       make(map[string]string),
		BufferSize:          100,
	}
}

// Validate ensures the configuration has valid values and sets defaults where
// needed. New resolves Token into an IntegrationAuth here when Auth is nil.
func (c *Config) Validate() error {
	if c.Auth == nil {
		if c.Token == "" {
			return &ConfigError{Field: "Auth", Message: "an auth provider or token is required"}
		}
		c.Auth = NewIntegrationAuth(c.Token)
	}

	if c.BaseURL == "" {
		c.BaseURL = "https://api.notion.com/v1"
	}

	if c.Version == "" {
		c.Version = "2022-06-28"
	}

	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	if c.MaxRetries < 0 {
		return &ConfigError{Field: "MaxRetries", Message: "max retries cannot be negative"}
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}

	if c.BaseBackoff == 0 {
		c.BaseBackoff = 1 * time.Second
	}

	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}

	if c.BackoffMultiplier <= 1.0 {
		c.BackoffMultiplier = 2.0
	}

	if c.RequestsPerSecond < 0 {
		return &ConfigError{Field: "RequestsPerSecond", Message: "request rate cannot be negative"}
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 3
	}

	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}

	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}

	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}

	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}

	if c.PageSize <= 0 || c.PageSize > 100 {
		c.PageSize = 100 // Notion's maximum page size
	}

	if c.RateLimitBuffer == 0 {
		c.RateLimitBuffer = 100 * time.Millisecond
	}

	if c.UserAgent == "" {
		c.UserAgent = "notion-go-client/1.0"
	}

	if c.CustomHeaders == nil {
		c.CustomHeaders = make(map[string]string)
	}

	if c.BufferSize <= 0 {
		c.BufferSize = 100
	}

	if c.Logger == nil {
		logger := log.Logger{
			Level:  log.InfoLevel,
			Writer: &log.ConsoleWriter{},
		}
		c.Logger = &logger
	}

	return nil
}

// FromEnv builds a configuration from NOTION_* environment variables.
// Authentication resolves through AuthFromEnv; the tuning variables are
// NOTION_BASE_URL, NOTION_API_VERSION, NOTION_REQUEST_TIMEOUT (seconds),
// NOTION_MAX_RETRIES, and NOTION_RATE_LIMIT_DELAY (minimum seconds between
// requests, converted to a rate).
func FromEnv() (*Config, error) {
	auth, err := AuthFromEnv()
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	c.Auth = auth

	if v := os.Getenv("NOTION_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("NOTION_API_VERSION"); v != "" {
		c.Version = v
	}
	if v := os.Getenv("NOTION_REQUEST_TIMEOUT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &ConfigError{Field: "Timeout", Message: fmt.Sprintf("invalid NOTION_REQUEST_TIMEOUT %q", v)}
		}
		c.Timeout = time.Duration(secs * float64(time.Second))
	}
	if v := os.Getenv("NOTION_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigError{Field: "MaxRetries", Message: fmt.Sprintf("invalid NOTION_MAX_RETRIES %q", v)}
		}
		c.MaxRetries = n
	}
	if v := os.Getenv("NOTION_RATE_LIMIT_DELAY"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs <= 0 {
			return nil, &ConfigError{Field: "RequestsPerSecond", Message: fmt.Sprintf("invalid NOTION_RATE_LIMIT_DELAY %q", v)}
		}
		c.RequestsPerSecond = 1 / secs
	}

	return c, nil
}

// LoadConfig reads a YAML configuration file and merges it over defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "path", Message: err.Error()}
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, &ConfigError{Field: "yaml", Message: err.Error()}
	}
	return c, nil
}

// CreateHTTPClient creates a pooled HTTP client based on the configuration.
func (c *Config) CreateHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        c.MaxIdleConns,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.Timeout,
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error returns the error message for ConfigError.
func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// RetryConfig contains configuration for retry behavior.
// This is used internally by the client for request retry logic.
type RetryConfig struct {
	MaxRetries        int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	RateLimitBuffer   time.Duration
}

// GetRetryConfig extracts retry configuration from the main config.
func (c *Config) GetRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        c.MaxRetries,
		BaseBackoff:       c.BaseBackoff,
		MaxBackoff:        c.MaxBackoff,
		BackoffMultiplier: c.BackoffMultiplier,
		RateLimitBuffer:   c.RateLimitBuffer,
	}
}
