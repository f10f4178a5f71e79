// Package exports writes intelligence report snapshots to disk and,
// when configured, archives them to blob storage.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/pkg/storage"
)

var ErrArchive = errors.New("archive snapshot")

// Result reports where a snapshot was written. Location is empty when
// archiving is disabled.
type Result struct {
	Path     string
	Location string
	Size     int
}

// Writer writes snapshots under a directory.
type Writer struct {
	dir     string
	archive storage.System
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a writer. archive may be nil.
func New(dir string, archive storage.System, logger *slog.Logger) *Writer {
	return &Writer{
		dir:     dir,
		archive: archive,
		logger:  logger.With("system", "exports"),
		now:     time.Now,
	}
}

// Write saves snap as <dir>/Intelligence_Report_<base>.json, replacing a
// previous export of the same document. If archiving is enabled the file
// is also uploaded; an existing archived report is never overwritten. A
// failed upload returns the local result together with an ErrArchive
// error.
func (w *Writer) Write(ctx context.Context, snap intelligence.Snapshot) (*Result, error) {
	data, err := snap.Encode()
	if err != nil {
		return nil, err
	}

	name := filepath.Base(snap.Filename())
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(w.dir, name)
	if err := writeFile(path, data); err != nil {
		return nil, err
	}

	res := &Result{Path: path, Size: len(data)}
	w.logger.Info("snapshot exported", "path", path, "size", len(data))

	if w.archive == nil {
		return res, nil
	}

	loc, err := w.upload(ctx, snap.Metadata.Workspace, name, data)
	if err != nil {
		w.logger.Warn("snapshot archive failed", "error", err)
		return res, fmt.Errorf("%w: %w", ErrArchive, err)
	}
	res.Location = loc
	return res, nil
}

func (w *Writer) upload(ctx context.Context, workspace, name string, data []byte) (string, error) {
	if err := w.archive.EnsureContainer(ctx); err != nil {
		return "", err
	}

	key := w.archive.Key(workspace, name)
	exists, err := w.archive.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		stamp := w.now().UTC().Format("20060102T150405Z")
		key = w.archive.Key(workspace, strings.TrimSuffix(name, ".json")+"_"+stamp+".json")
	}

	if err := w.archive.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", err
	}

	loc := w.archive.Location(key)
	w.logger.Info("snapshot archived", "location", loc)
	return loc, nil
}

func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}
