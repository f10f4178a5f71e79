package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/alphadoc/pkg/formatting"
	"github.com/JaimeStill/alphadoc/pkg/middleware"
)

const (
	EnvSandboxHost            = "ALPHADOC_SANDBOX_HOST"
	EnvSandboxPort            = "ALPHADOC_SANDBOX_PORT"
	EnvSandboxReadTimeout     = "ALPHADOC_SANDBOX_READ_TIMEOUT"
	EnvSandboxWriteTimeout    = "ALPHADOC_SANDBOX_WRITE_TIMEOUT"
	EnvSandboxShutdownTimeout = "ALPHADOC_SANDBOX_SHUTDOWN_TIMEOUT"
	EnvSandboxTokenSecret     = "ALPHADOC_SANDBOX_TOKEN_SECRET"
	EnvSandboxTokenTTL        = "ALPHADOC_SANDBOX_TOKEN_TTL"
)

var sandboxCORSEnv = &middleware.CORSEnv{
	Enabled:          "ALPHADOC_SANDBOX_CORS_ENABLED",
	Origins:          "ALPHADOC_SANDBOX_CORS_ORIGINS",
	AllowedMethods:   "ALPHADOC_SANDBOX_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ALPHADOC_SANDBOX_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ALPHADOC_SANDBOX_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ALPHADOC_SANDBOX_CORS_MAX_AGE",
}

// SandboxConfig holds parameters for the local in-memory service.
type SandboxConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	TokenSecret     string `toml:"token_secret"`
	TokenTTL        string `toml:"token_ttl"`
	MaxUploadSize   string `toml:"max_upload_size"`

	CORS middleware.CORSConfig `toml:"cors"`
}

// Addr returns the host:port listen address.
func (c *SandboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *SandboxConfig) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	return d
}

func (c *SandboxConfig) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

func (c *SandboxConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

func (c *SandboxConfig) TokenTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

func (c *SandboxConfig) MaxUploadSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxUploadSize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SandboxConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	if err := c.CORS.Finalize(sandboxCORSEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SandboxConfig) Merge(overlay *SandboxConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.TokenSecret != "" {
		c.TokenSecret = overlay.TokenSecret
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
}

func (c *SandboxConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 7860
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "5m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.TokenSecret == "" {
		c.TokenSecret = "alphadoc-sandbox"
	}
	if c.TokenTTL == "" {
		c.TokenTTL = "24h"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *SandboxConfig) loadEnv() {
	if v := os.Getenv(EnvSandboxHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvSandboxPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvSandboxReadTimeout); v != "" {
		c.ReadTimeout = v
	}
	if v := os.Getenv(EnvSandboxWriteTimeout); v != "" {
		c.WriteTimeout = v
	}
	if v := os.Getenv(EnvSandboxShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSandboxTokenSecret); v != "" {
		c.TokenSecret = v
	}
	if v := os.Getenv(EnvSandboxTokenTTL); v != "" {
		c.TokenTTL = v
	}
}

func (c *SandboxConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for name, v := range map[string]string{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
		"token_ttl":        c.TokenTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
