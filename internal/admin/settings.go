package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"
)

// DefaultVectorIndex is the index name used when none is given.
const DefaultVectorIndex = "vector_index"

var validate = validator.New(validator.WithRequiredStructEnabled())

type SettingsRemote interface {
	SetEngineKey(ctx context.Context, key string) (string, error)
	SetStorageLink(ctx context.Context, uri, vectorIndex string) (string, error)
}

// HistorySync is refreshed after the storage link changes.
type HistorySync interface {
	RefreshInBackground()
}

// EngineKey is the analysis engine credential for the workspace.
type EngineKey struct {
	Key string `validate:"required,max=512"`
}

func (k EngineKey) Validate() error {
	if err := validate.Struct(k); err != nil {
		return ErrEngineKeyRequired
	}
	return nil
}

// StorageLink points the workspace at its document store and vector index.
type StorageLink struct {
	URI         string `validate:"required"`
	VectorIndex string `validate:"required,max=64,printascii,excludesall=/. "`
}

func (l StorageLink) Validate() error {
	if err := validate.Var(l.URI, "required"); err != nil {
		return fmt.Errorf("%w: URI is required", ErrInvalidStorageURI)
	}

	u, err := url.Parse(l.URI)
	if err != nil {
		return fmt.Errorf("%w: unparseable", ErrInvalidStorageURI)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("%w: scheme must be mongodb or mongodb+srv", ErrInvalidStorageURI)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidStorageURI)
	}

	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidIndexName, l.VectorIndex)
	}
	return nil
}

// Settings writes workspace engine and storage configuration. Every
// operation requires the admin role and is rejected locally otherwise.
type Settings struct {
	engine  *semaphore.Weighted
	storage *semaphore.Weighted

	remote   SettingsRemote
	history  HistorySync
	identity Identity
	logger   *slog.Logger
}

// NewSettings creates the configuration manager. history may be nil.
func NewSettings(remote SettingsRemote, history HistorySync, identity Identity, logger *slog.Logger) *Settings {
	return &Settings{
		engine:   semaphore.NewWeighted(1),
		storage:  semaphore.NewWeighted(1),
		remote:   remote,
		history:  history,
		identity: identity,
		logger:   logger.With("system", "settings"),
	}
}

// SetEngineKey stores the analysis engine key and returns the remote
// acknowledgement.
func (s *Settings) SetEngineKey(ctx context.Context, key string) (string, error) {
	if err := s.requireAdmin(); err != nil {
		return "", err
	}

	req := EngineKey{Key: strings.TrimSpace(key)}
	if err := req.Validate(); err != nil {
		return "", err
	}

	if !s.engine.TryAcquire(1) {
		return "", ErrBusy
	}
	defer s.engine.Release(1)

	msg, err := s.remote.SetEngineKey(ctx, req.Key)
	if err != nil {
		return "", err
	}

	s.logger.Info("engine key updated")
	return msg, nil
}

// LinkStorage stores the document store URI and vector index name. An
// empty index name selects DefaultVectorIndex. On success the history list
// is refreshed.
func (s *Settings) LinkStorage(ctx context.Context, uri, vectorIndex string) (string, error) {
	if err := s.requireAdmin(); err != nil {
		return "", err
	}

	link := StorageLink{
		URI:         strings.TrimSpace(uri),
		VectorIndex: strings.TrimSpace(vectorIndex),
	}
	if link.VectorIndex == "" {
		link.VectorIndex = DefaultVectorIndex
	}
	if err := link.Validate(); err != nil {
		return "", err
	}

	if !s.storage.TryAcquire(1) {
		return "", ErrBusy
	}
	defer s.storage.Release(1)

	msg, err := s.remote.SetStorageLink(ctx, link.URI, link.VectorIndex)
	if err != nil {
		return "", err
	}

	s.logger.Info("storage linked", "vector_index", link.VectorIndex)
	if s.history != nil {
		s.history.RefreshInBackground()
	}
	return msg, nil
}

func (s *Settings) requireAdmin() error {
	sess, err := s.identity.Require()
	if err != nil {
		return err
	}
	return sess.RequireAdmin()
}
