// Package typed provides JSON-typed access to single keys of a core.Storage.
package typed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/qafizz/pkg/core"
)

// Key wraps one storage key holding a JSON-encoded T.
// It acts as an Application Layer adapter, converting between raw strings and typed values.
type Key[T any] struct {
	storage core.Storage
	name    string
}

// NewKey creates a typed view of key name in storage.
func NewKey[T any](storage core.Storage, name string) *Key[T] {
	return &Key[T]{storage: storage, name: name}
}

// Name returns the underlying storage key.
func (k *Key[T]) Name() string {
	return k.name
}

// Load reads and decodes the value. ok is false when the key is absent.
// A value that is not valid JSON for T is returned as an error.
func (k *Key[T]) Load(ctx context.Context) (value T, ok bool, err error) {
	raw, ok, err := k.storage.Get(ctx, k.name)
	if err != nil || !ok {
		return value, false, err
	}
	value, err = decode[T](k.name, raw)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Store encodes value and writes it, replacing the whole previous value.
func (k *Key[T]) Store(ctx context.Context, value T) error {
	raw, err := encode(k.name, value)
	if err != nil {
		return err
	}
	return k.storage.Set(ctx, k.name, raw)
}

// Delete removes the key.
func (k *Key[T]) Delete(ctx context.Context) error {
	return k.storage.Remove(ctx, k.name)
}

// Update runs a read-modify-write of the value.
// When the storage implements core.Atomic the cycle runs under its
// single-writer guarantee; otherwise it is a plain load followed by a store.
// fn may return core.ErrUnchanged to skip the write.
func (k *Key[T]) Update(ctx context.Context, fn func(current T, ok bool) (T, error)) error {
	if atomic, isAtomic := k.storage.(core.Atomic); isAtomic {
		return atomic.Update(ctx, k.name, func(raw string, ok bool) (string, bool, error) {
			var current T
			if ok {
				var err error
				if current, err = decode[T](k.name, raw); err != nil {
					return "", false, err
				}
			}
			next, err := fn(current, ok)
			if err != nil {
				return "", false, err
			}
			out, err := encode(k.name, next)
			if err != nil {
				return "", false, err
			}
			return out, true, nil
		})
	}

	current, ok, err := k.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current, ok)
	if errors.Is(err, core.ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	return k.Store(ctx, next)
}

func decode[T any](key, raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal %s into type %T: %w", key, v, err)
	}
	return v, nil
}

func encode[T any](key string, v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return string(data), nil
}
