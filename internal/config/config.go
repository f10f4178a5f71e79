package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/alphadoc/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvAlphaDocConfig = "ALPHADOC_CONFIG"
	EnvAlphaDocEnv    = "ALPHADOC_ENV"
)

var archiveEnv = &storage.Env{
	ContainerName:    "ALPHADOC_ARCHIVE_CONTAINER_NAME",
	ConnectionString: "ALPHADOC_ARCHIVE_CONNECTION_STRING",
	ServiceURL:       "ALPHADOC_ARCHIVE_SERVICE_URL",
}

// Config is the root configuration for the AlphaDoc client and sandbox.
type Config struct {
	Client  ClientConfig  `toml:"client"`
	Session SessionConfig `toml:"session"`
	Logging LoggingConfig `toml:"logging"`
	Export  ExportConfig  `toml:"export"`
	Sandbox SandboxConfig `toml:"sandbox"`
}

// Env returns the ALPHADOC_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAlphaDocEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads .env (without overriding variables already set), the base
// config (if present), any environment overlay, and finalizes all values.
// With no config file, defaults and environment variables provide all
// configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}
	base := basePath()

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if os.Getenv(EnvAlphaDocConfig) != "" {
		return nil, fmt.Errorf("config %s: %w", base, err)
	}

	if path := overlayPath(base); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.Client.Merge(&overlay.Client)
	c.Session.Merge(&overlay.Session)
	c.Logging.Merge(&overlay.Logging)
	c.Export.Merge(&overlay.Export)
	c.Sandbox.Merge(&overlay.Sandbox)
}

// Finalize applies defaults, environment overrides and validation to every
// sub-config.
func (c *Config) Finalize() error {
	if err := c.Client.Finalize(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Session.Finalize(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Export.Finalize(archiveEnv); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Sandbox.Finalize(); err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func basePath() string {
	if p := os.Getenv(EnvAlphaDocConfig); p != "" {
		return p
	}
	return BaseConfigFile
}

func overlayPath(base string) string {
	if env := os.Getenv(EnvAlphaDocEnv); env != "" {
		path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
