package notebook

import (
	"log/slog"
	"time"

	"github.com/aretw0/qafizz/pkg/core"
)

// DefaultSaveDelay is the pause before a new note is stored.
const DefaultSaveDelay = time.Second

type options struct {
	logger    *slog.Logger
	ids       core.IDGenerator
	now       func() time.Time
	saveDelay time.Duration
}

// Option configures the notebook service.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		saveDelay: DefaultSaveDelay,
	}
}

// WithLogger sets the logger for the service and its stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator sets the generator for note ids.
func WithIDGenerator(ids core.IDGenerator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSaveDelay sets the pause before CreateNote stores a note.
// Zero disables it.
func WithSaveDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.saveDelay = d
		}
	}
}
