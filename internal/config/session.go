package config

import (
	"os"
	"path/filepath"
)

const EnvSessionPath = "ALPHADOC_SESSION_PATH"

// SessionConfig locates the persisted session file.
type SessionConfig struct {
	Path string `toml:"path"`
}

func (c *SessionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return nil
}

func (c *SessionConfig) Merge(overlay *SessionConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
}

func (c *SessionConfig) loadDefaults() {
	if c.Path != "" {
		return
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	c.Path = filepath.Join(dir, "alphadoc", "session.json")
}

func (c *SessionConfig) loadEnv() {
	if v := os.Getenv(EnvSessionPath); v != "" {
		c.Path = v
	}
}
