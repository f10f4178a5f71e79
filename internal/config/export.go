package config

import (
	"os"

	"github.com/JaimeStill/alphadoc/pkg/storage"
)

const EnvExportDir = "ALPHADOC_EXPORT_DIR"

// ExportConfig controls where exported snapshots are written. Archive is
// optional; an archive with no container name is disabled.
type ExportConfig struct {
	Dir     string         `toml:"dir"`
	Archive storage.Config `toml:"archive"`
}

// ArchiveEnabled reports whether snapshots are also uploaded to blob storage.
func (c *ExportConfig) ArchiveEnabled() bool {
	return c.Archive.ContainerName != "" &&
		(c.Archive.ConnectionString != "" || c.Archive.ServiceURL != "")
}

func (c *ExportConfig) Finalize(env *storage.Env) error {
	if c.Dir == "" {
		c.Dir = "."
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		c.Dir = v
	}
	return c.Archive.Finalize(env)
}

func (c *ExportConfig) Merge(overlay *ExportConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	c.Archive.Merge(&overlay.Archive)
}
