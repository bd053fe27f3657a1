package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/qafizz/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterMemory   = "memory"
	AdapterFS       = "fs"
	AdapterSQLite   = "sqlite"
	AdapterPostgres = "postgres"
	AdapterMongo    = "mongo"
	AdapterNone     = "none"
)

// options holds the internal configuration for a Qafizz notebook.
type options struct {
	storage      core.Storage
	logger       *slog.Logger
	adapter      string
	readOnly     bool
	mustExist    bool
	forceTemp    bool
	devSafety    bool
	saveDelay    *time.Duration
	ids          core.IDGenerator
	now          func() time.Time
	errorHandler func(error)
	table        string
	database     string
}

// Option defines a functional option for configuring Qafizz.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for storage adapters and the notebook.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage adapter, skipping the named adapter.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage adapter by name: fs (default), memory,
// sqlite, postgres, mongo or none.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithReadOnly makes writes fail with core.ErrReadOnly (fs adapter).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist refuses to create the storage directory (fs adapter).
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp re-roots the fs directory under the system temp dir.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`: by default the fs adapter is re-rooted into a temp directory
// so development runs never touch real data.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSaveDelay sets the pause before a new note is stored.
func WithSaveDelay(d time.Duration) Option {
	return func(o *options) {
		o.saveDelay = &d
	}
}

// WithIDGenerator sets the note id generator.
func WithIDGenerator(ids core.IDGenerator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithWatcherErrorHandler receives runtime watcher failures (fs adapter)
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithTable overrides the key/value table name (sqlite and postgres).
func WithTable(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// WithDatabase overrides the Mongo database name.
func WithDatabase(name string) Option {
	return func(o *options) {
		o.database = name
	}
}
