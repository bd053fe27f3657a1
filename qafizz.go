package qafizz

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/qafizz/internal/platform"
	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/notebook"
)

// --- Types ---

// Notebook is the application service over the session and note stores.
type Notebook = notebook.Service

// User is the signed-in user profile.
type User = core.User

// UserPatch is a partial profile update.
type UserPatch = core.UserPatch

// Note is a single persisted note.
type Note = core.Note

// Draft holds the user-editable fields of a note.
type Draft = notebook.Draft

// Filter narrows a note listing by search text and category.
type Filter = notebook.Filter

// Config is the qafizz.yaml configuration.
type Config = platform.Config

// Workspace is the directory found by FindWorkspace.
type Workspace = platform.Workspace

// --- Configuration ---

// Option defines a functional option for configuring Qafizz.
type Option = platform.Option

// WithLogger sets the logger for adapters and the notebook.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a custom storage adapter.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithReadOnly makes writes fail with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist refuses to create the storage directory.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox for the fs adapter.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithSaveDelay sets the pause before a new note is stored.
func WithSaveDelay(d time.Duration) Option {
	return platform.WithSaveDelay(d)
}

// WithIDGenerator sets the note id generator.
func WithIDGenerator(ids core.IDGenerator) Option {
	return platform.WithIDGenerator(ids)
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the configured storage and returns a Notebook over it.
func New(ctx context.Context, dsn string, opts ...Option) (*Notebook, error) {
	return platform.New(ctx, dsn, opts...)
}

// Open returns only the configured storage.
func Open(ctx context.Context, dsn string, opts ...Option) (core.Storage, error) {
	return platform.Open(ctx, dsn, opts...)
}

// LoadConfig reads qafizz.yaml, .env and QAFIZZ_* variables.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// FindWorkspace looks upwards for qafizz.yaml, falling back to the nearest
// .qafizz directory.
func FindWorkspace(startDir string) (Workspace, error) {
	return platform.FindWorkspace(startDir)
}
