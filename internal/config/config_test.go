package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/alphadoc/internal/config"
)

// isolate blanks every variable Load consults so the host environment
// cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAlphaDocConfig,
		config.EnvAlphaDocEnv,
		config.EnvClientBaseURL,
		config.EnvClientTimeout,
		config.EnvClientMaxUploadSize,
		config.EnvClientMaxResponseSize,
		config.EnvLoggingLevel,
		config.EnvLoggingFormat,
		config.EnvLoggingFile,
		config.EnvExportDir,
		config.EnvSandboxPort,
		config.EnvSandboxTokenTTL,
		"ALPHADOC_ARCHIVE_CONTAINER_NAME",
		"ALPHADOC_ARCHIVE_CONNECTION_STRING",
		"ALPHADOC_ARCHIVE_SERVICE_URL",
		"ALPHADOC_SANDBOX_CORS_ENABLED",
		"ALPHADOC_SANDBOX_CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvSessionPath, filepath.Join(t.TempDir(), "session.json"))
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:7860", cfg.Client.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Client.TimeoutDuration())
	assert.Equal(t, int64(50*1024*1024), cfg.Client.MaxUploadSizeBytes())
	assert.Equal(t, int64(256*1024*1024), cfg.Client.MaxResponseSizeBytes())

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)

	assert.Equal(t, ".", cfg.Export.Dir)
	assert.False(t, cfg.Export.ArchiveEnabled())
	assert.Equal(t, "alphadoc-exports", cfg.Export.Archive.ContainerName)

	assert.Equal(t, "127.0.0.1:7860", cfg.Sandbox.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Sandbox.TokenTTLDuration())
	assert.Equal(t, 10*time.Second, cfg.Sandbox.ShutdownTimeoutDuration())
	assert.False(t, cfg.Sandbox.CORS.Enabled)
	assert.Contains(t, cfg.Sandbox.CORS.AllowedHeaders, "workspace-id")
	assert.Contains(t, cfg.Sandbox.CORS.AllowedHeaders, "Authorization")

	assert.Equal(t, "local", cfg.Env())
}

func TestLoadFileAndOverlay(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	base := write(t, dir, "config.toml", `
[client]
base_url = "https://alphadoc.example.com"
timeout = "30s"

[logging]
level = "info"
format = "JSON"

[export]
dir = "/var/exports"

[sandbox]
port = 9000

[sandbox.cors]
enabled = true
origins = ["http://localhost:5173"]
`)
	write(t, dir, "config.staging.toml", `
[client]
timeout = "45s"

[sandbox]
token_ttl = "1h"

[sandbox.cors]
enabled = true
`)

	t.Setenv(config.EnvAlphaDocConfig, base)
	t.Setenv(config.EnvAlphaDocEnv, "staging")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env())
	assert.Equal(t, "https://alphadoc.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Client.TimeoutDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/exports", cfg.Export.Dir)
	assert.Equal(t, 9000, cfg.Sandbox.Port)
	assert.Equal(t, time.Hour, cfg.Sandbox.TokenTTLDuration())
	assert.True(t, cfg.Sandbox.CORS.Enabled)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Sandbox.CORS.Origins)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	base := write(t, dir, "config.toml", `
[client]
base_url = "https://alphadoc.example.com"

[sandbox]
port = 9000
`)
	t.Setenv(config.EnvAlphaDocConfig, base)
	t.Setenv(config.EnvClientBaseURL, "http://127.0.0.1:8080")
	t.Setenv(config.EnvSandboxPort, "9100")
	t.Setenv(config.EnvExportDir, "/tmp/out")
	t.Setenv(config.EnvLoggingLevel, "debug")
	t.Setenv("ALPHADOC_SANDBOX_CORS_ENABLED", "true")
	t.Setenv("ALPHADOC_SANDBOX_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Client.BaseURL)
	assert.Equal(t, 9100, cfg.Sandbox.Port)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Sandbox.CORS.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Sandbox.CORS.Origins)
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvAlphaDocConfig, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"base url scheme", config.EnvClientBaseURL, "ftp://alphadoc"},
		{"base url host", config.EnvClientBaseURL, "http://"},
		{"client timeout", config.EnvClientTimeout, "soon"},
		{"upload size", config.EnvClientMaxUploadSize, "lots"},
		{"log level", config.EnvLoggingLevel, "loud"},
		{"log format", config.EnvLoggingFormat, "xml"},
		{"token ttl", config.EnvSandboxTokenTTL, "forever"},
		{"sandbox port", config.EnvSandboxPort, "70000"},
		{"archive service url", "ALPHADOC_ARCHIVE_SERVICE_URL", "http://insecure.blob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestNegativeTokenTTLIsAllowed(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvSandboxTokenTTL, "-1m")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, -time.Minute, cfg.Sandbox.TokenTTLDuration())
}

func TestArchiveEnabled(t *testing.T) {
	isolate(t)
	t.Setenv("ALPHADOC_ARCHIVE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Export.ArchiveEnabled())
}

func TestMerge(t *testing.T) {
	base := &config.Config{
		Client:  config.ClientConfig{BaseURL: "http://a.test", Timeout: "1m"},
		Logging: config.LoggingConfig{Level: "warn", MaxSizeMB: 10},
		Export:  config.ExportConfig{Dir: "/a"},
	}
	base.Merge(&config.Config{
		Client:  config.ClientConfig{Timeout: "5s"},
		Logging: config.LoggingConfig{MaxSizeMB: 20},
	})

	assert.Equal(t, "http://a.test", base.Client.BaseURL)
	assert.Equal(t, "5s", base.Client.Timeout)
	assert.Equal(t, "warn", base.Logging.Level)
	assert.Equal(t, 20, base.Logging.MaxSizeMB)
	assert.Equal(t, "/a", base.Export.Dir)
}
