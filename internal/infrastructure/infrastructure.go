// Package infrastructure assembles the client components from configuration
// and wires the hooks between them: clearing the session resets every
// component, and commits, deactivations and storage links refresh history.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/alphadoc/internal/admin"
	"github.com/JaimeStill/alphadoc/internal/client"
	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/exports"
	"github.com/JaimeStill/alphadoc/internal/history"
	"github.com/JaimeStill/alphadoc/internal/search"
	"github.com/JaimeStill/alphadoc/internal/session"
	"github.com/JaimeStill/alphadoc/internal/workflow"
	"github.com/JaimeStill/alphadoc/pkg/storage"
)

// Options override the defaults New derives from configuration.
type Options struct {
	// Store replaces the session file store.
	Store session.Store
	// HTTPClient replaces the client built from the configured timeout.
	HTTPClient *http.Client
	// LogOutput receives logs when no log file is configured. Defaults to
	// stderr.
	LogOutput io.Writer
}

// Infrastructure holds every client component, wired together.
type Infrastructure struct {
	Config   *config.Config
	Logger   *slog.Logger
	Session  *session.Context
	Client   *client.Client
	Workflow *workflow.Controller
	History  history.System
	Search   search.System
	Audit    *admin.AuditLog
	Settings *admin.Settings
	Exports  *exports.Writer

	logCloser io.Closer
}

// New builds the components and restores any persisted session.
func New(cfg *config.Config, opts Options) (*Infrastructure, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, closer := NewLogger(&cfg.Logging, out)

	store := opts.Store
	if store == nil {
		store = session.NewFileStore(cfg.Session.Path)
	}
	sess := session.New(store, logger)

	cl, err := client.New(&cfg.Client, opts.HTTPClient, sess, logger)
	if err != nil {
		closeQuietly(closer)
		return nil, fmt.Errorf("client init failed: %w", err)
	}

	var archive storage.System
	if cfg.Export.ArchiveEnabled() {
		archive, err = storage.New(&cfg.Export.Archive, logger)
		if err != nil {
			closeQuietly(closer)
			return nil, fmt.Errorf("archive init failed: %w", err)
		}
	}

	hist := history.New(cl, sess, logger)
	ctrl := workflow.New(cl, hist, sess, logger)
	hist.Bind(ctrl)

	infra := &Infrastructure{
		Config:    cfg,
		Logger:    logger,
		Session:   sess,
		Client:    cl,
		Workflow:  ctrl,
		History:   hist,
		Search:    search.New(cl, sess, logger),
		Audit:     admin.NewAuditLog(cl, sess, logger),
		Settings:  admin.NewSettings(cl, hist, sess, logger),
		Exports:   exports.New(cfg.Export.Dir, archive, logger),
		logCloser: closer,
	}

	sess.OnClear(infra.reset)
	sess.Restore()

	return infra, nil
}

func (i *Infrastructure) reset() {
	i.Workflow.Reset()
	i.History.Reset()
	i.Search.Reset()
	i.Audit.Reset()
	i.Logger.Info("session cleared, components reset")
}

// Close waits for background history refreshes and closes the log file.
func (i *Infrastructure) Close() error {
	i.History.Wait()
	if i.logCloser != nil {
		return i.logCloser.Close()
	}
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
