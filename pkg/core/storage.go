package core

import (
	"context"
	"errors"
)

// Storage is the key-value substrate the stores run against.
// Keys and values are plain strings; values are usually JSON.
type Storage interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Watchable is implemented by storage that can report changes made by
// other handles sharing the same namespace. Writes made through the
// watching handle itself are never reported back to it.
type Watchable interface {
	// Watch streams change events for keys matching pattern (a doublestar glob).
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// UpdateFunc computes the next value of a key from its current one.
// Returning keep=false removes the key.
type UpdateFunc func(current string, ok bool) (next string, keep bool, err error)

// Atomic is implemented by storage that can run a read-modify-write of a
// single key without interleaving writers.
type Atomic interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Closer is implemented by storage holding external resources.
type Closer interface {
	Close() error
}

// ErrUnchanged may be returned by an UpdateFunc to leave the key as it is.
// Atomic implementations treat it as success and write nothing.
var ErrUnchanged = errors.New("value unchanged")
