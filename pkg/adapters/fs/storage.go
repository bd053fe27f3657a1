// Package fs implements core.Storage over a directory, one file per key.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/qafizz/pkg/core"
)

// DefaultDebounce coalesces bursts of filesystem events for one key.
const DefaultDebounce = 50 * time.Millisecond

// Config holds the configuration for the filesystem storage.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	Debounce     time.Duration
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// ownWrite is the last value this handle wrote to a key.
type ownWrite struct {
	value   string
	removed bool
}

// Storage implements core.Storage using plain files.
// Each Storage value is one handle: its watchers never report changes it
// made itself, while writes from other handles on the same directory do.
type Storage struct {
	Path   string
	config Config
	cache  *cache

	mu        sync.RWMutex
	own       map[string]ownWrite
	watchers  int
	lastEvent *time.Time
	closed    bool
}

// New creates a filesystem-backed storage handle. Call Initialize before use.
func New(config Config) *Storage {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return &Storage{
		Path:   config.Path,
		config: config,
		cache:  newCache(),
		own:    make(map[string]ownWrite),
	}
}

// Initialize creates the directory unless MustExist is set.
func (s *Storage) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("storage path does not exist: %s: %w", s.Path, core.ErrUnavailable)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("storage path is not a directory: %s", s.Path)
		}
		return nil
	}

	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

func (s *Storage) file(key string) string {
	return filepath.Join(s.Path, key)
}

func (s *Storage) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return core.ErrUnavailable
	}
	return nil
}

func (s *Storage) checkWritable() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	return nil
}

// Get reads the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	if err := s.checkOpen(); err != nil {
		return "", false, err
	}
	return s.read(key)
}

func (s *Storage) read(key string) (string, bool, error) {
	path := s.file(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		s.cache.forget(key)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	if v, ok := s.cache.lookup(key, info); ok {
		return v, true, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	s.cache.store(key, info, string(data))
	return string(data), true, nil
}

// Set writes value under key atomically.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}
	return s.write(key, value)
}

func (s *Storage) write(key, value string) error {
	s.remember(key, ownWrite{value: value})
	if err := writeFileAtomic(s.file(key), []byte(value), 0644); err != nil {
		return err
	}
	if s.config.Logger != nil {
		s.config.Logger.Debug("key written", "key", key, "bytes", len(value))
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}
	return s.remove(key)
}

func (s *Storage) remove(key string) error {
	s.remember(key, ownWrite{removed: true})
	s.cache.forget(key)
	err := os.Remove(s.file(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Update runs fn under the directory lock file, so concurrent handles and
// processes never interleave read-modify-write cycles on the same directory.
func (s *Storage) Update(ctx context.Context, key string, fn core.UpdateFunc) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.checkWritable(); err != nil {
		return err
	}

	unlock, err := acquireLock(ctx, s.Path)
	if err != nil {
		return err
	}
	defer unlock()

	current, ok, err := s.read(key)
	if err != nil {
		return err
	}

	next, keep, err := fn(current, ok)
	if errors.Is(err, core.ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if !keep {
		if !ok {
			return nil
		}
		return s.remove(key)
	}
	return s.write(key, next)
}

// Close marks the handle unusable. Running watchers stop with their context.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Storage) remember(key string, w ownWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own[key] = w
}

// isOwn reports whether the current on-disk state of key is the one this
// handle last produced.
func (s *Storage) isOwn(key, value string, exists bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.own[key]
	if !ok {
		return false
	}
	if !exists {
		return w.removed
	}
	return !w.removed && w.value == value
}

var (
	_ core.Storage   = (*Storage)(nil)
	_ core.Atomic    = (*Storage)(nil)
	_ core.Watchable = (*Storage)(nil)
	_ core.Closer    = (*Storage)(nil)
)
