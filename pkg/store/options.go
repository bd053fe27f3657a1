// Package store implements the Qafizz session store and note store on top
// of an injected core.Storage.
//
// Both stores read and write the storage on every call; nothing is cached
// in memory. Persisted layout:
//
//	qafizz_auth   "true" or absent
//	qafizz_user   JSON User or absent
//	qafizz_notes  JSON array of Note for all users, or absent
package store

import (
	"log/slog"
	"time"

	"github.com/aretw0/qafizz/pkg/core"
)

// Storage keys.
const (
	AuthKey  = "qafizz_auth"
	UserKey  = "qafizz_user"
	NotesKey = "qafizz_notes"
)

// options holds the configuration shared by both stores.
type options struct {
	logger *slog.Logger
	ids    core.IDGenerator
	now    func() time.Time
}

// Option configures a store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.ids == nil {
		o.ids = core.NewClockIDs(o.now)
	}
	return o
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator sets the generator used for seeded note ids.
// Defaults to core.ClockIDs over the configured clock.
func WithIDGenerator(ids core.IDGenerator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// WithClock overrides time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
