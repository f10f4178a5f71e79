package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/JaimeStill/alphadoc/pkg/formatting"
)

const (
	EnvClientBaseURL         = "ALPHADOC_BASE_URL"
	EnvClientTimeout         = "ALPHADOC_TIMEOUT"
	EnvClientMaxUploadSize   = "ALPHADOC_MAX_UPLOAD_SIZE"
	EnvClientMaxResponseSize = "ALPHADOC_MAX_RESPONSE_SIZE"
)

// ClientConfig holds the remote service location and transfer limits.
type ClientConfig struct {
	BaseURL         string `toml:"base_url"`
	Timeout         string `toml:"timeout"`
	MaxUploadSize   string `toml:"max_upload_size"`
	MaxResponseSize string `toml:"max_response_size"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ClientConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ClientConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
}

func (c *ClientConfig) MaxResponseSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxResponseSize)
	if err != nil {
		return 256 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClientConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClientConfig) Merge(overlay *ClientConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxResponseSize != "" {
		c.MaxResponseSize = overlay.MaxResponseSize
	}
}

func (c *ClientConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:7860"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
	if c.MaxResponseSize == "" {
		c.MaxResponseSize = "256MB"
	}
}

func (c *ClientConfig) loadEnv() {
	if v := os.Getenv(EnvClientBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvClientTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvClientMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvClientMaxResponseSize); v != "" {
		c.MaxResponseSize = v
	}
}

func (c *ClientConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url: missing host")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxResponseSize); err != nil {
		return fmt.Errorf("invalid max_response_size: %w", err)
	}
	return nil
}
