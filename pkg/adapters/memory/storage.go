// Package memory implements core.Storage in process memory.
//
// A Namespace plays the role of a browser origin: every handle opened on it
// sees the same keys, and a write through one handle is reported to the
// watchers of every other handle, never to the writer itself.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/qafizz/pkg/core"
)

// Namespace is a shared key space.
type Namespace struct {
	mu      sync.RWMutex
	data    map[string]string
	handles map[*Storage]struct{}
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		data:    make(map[string]string),
		handles: make(map[*Storage]struct{}),
	}
}

// Open returns a new handle on the namespace.
func (ns *Namespace) Open() *Storage {
	s := &Storage{ns: ns}
	ns.mu.Lock()
	ns.handles[s] = struct{}{}
	ns.mu.Unlock()
	return s
}

// Storage is a handle on a Namespace. It implements core.Storage,
// core.Watchable and core.Atomic.
type Storage struct {
	ns *Namespace

	mu       sync.Mutex
	watchers []*watcher
}

// New returns a handle on a fresh, private namespace.
func New() *Storage {
	return NewNamespace().Open()
}

// Namespace returns the namespace this handle belongs to.
func (s *Storage) Namespace() *Namespace {
	return s.ns
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.ns.mu.RLock()
	defer s.ns.mu.RUnlock()
	v, ok := s.ns.data[key]
	return v, ok, nil
}

// Set implements core.Storage.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ns.mu.Lock()
	s.ns.data[key] = value
	s.ns.mu.Unlock()

	s.broadcast(ctx, core.Event{Type: core.EventSet, Key: key, Timestamp: time.Now().Unix()})
	return nil
}

// Remove implements core.Storage.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ns.mu.Lock()
	_, existed := s.ns.data[key]
	delete(s.ns.data, key)
	s.ns.mu.Unlock()

	if existed {
		s.broadcast(ctx, core.Event{Type: core.EventRemove, Key: key, Timestamp: time.Now().Unix()})
	}
	return nil
}

// Update implements core.Atomic. fn runs with the namespace locked.
func (s *Storage) Update(ctx context.Context, key string, fn core.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ns.mu.Lock()
	current, ok := s.ns.data[key]
	next, keep, err := fn(current, ok)
	if err != nil {
		s.ns.mu.Unlock()
		if errors.Is(err, core.ErrUnchanged) {
			return nil
		}
		return err
	}
	var e core.Event
	switch {
	case keep:
		s.ns.data[key] = next
		e = core.Event{Type: core.EventSet, Key: key}
	case ok:
		delete(s.ns.data, key)
		e = core.Event{Type: core.EventRemove, Key: key}
	}
	s.ns.mu.Unlock()

	if e.Type != "" {
		e.Timestamp = time.Now().Unix()
		s.broadcast(ctx, e)
	}
	return nil
}

// Keys returns the number of keys currently stored in the namespace.
func (s *Storage) Keys() int {
	s.ns.mu.RLock()
	defer s.ns.mu.RUnlock()
	return len(s.ns.data)
}

// Close detaches the handle from its namespace. Its watchers stop receiving events.
func (s *Storage) Close() error {
	s.ns.mu.Lock()
	delete(s.ns.handles, s)
	s.ns.mu.Unlock()
	return nil
}

// Watch implements core.Watchable.
func (s *Storage) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	w := &watcher{
		pattern: pattern,
		ch:      make(chan core.Event, 64),
		done:    ctx.Done(),
	}

	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.removeWatcher(w)
		w.close()
	}()

	return w.ch, nil
}

func (s *Storage) removeWatcher(w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.watchers {
		if cur == w {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

// broadcast delivers e to the watchers of every other handle.
func (s *Storage) broadcast(ctx context.Context, e core.Event) {
	s.ns.mu.RLock()
	others := make([]*Storage, 0, len(s.ns.handles))
	for h := range s.ns.handles {
		if h != s {
			others = append(others, h)
		}
	}
	s.ns.mu.RUnlock()

	for _, h := range others {
		h.mu.Lock()
		ws := append([]*watcher(nil), h.watchers...)
		h.mu.Unlock()

		for _, w := range ws {
			w.send(ctx, e)
		}
	}
}

type watcher struct {
	pattern string
	ch      chan core.Event
	done    <-chan struct{}

	mu     sync.Mutex
	closed bool
}

// send blocks until the event is buffered or either side gives up.
func (w *watcher) send(ctx context.Context, e core.Event) {
	if ok, _ := doublestar.Match(w.pattern, e.Key); !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.ch <- e:
	case <-w.done:
	case <-ctx.Done():
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.Lock()
	watchers := len(s.watchers)
	s.mu.Unlock()

	s.ns.mu.RLock()
	defer s.ns.mu.RUnlock()
	return State{
		Keys:     len(s.ns.data),
		Handles:  len(s.ns.handles),
		Watchers: watchers,
	}
}

// State exposes the handle's internal state for observability.
type State struct {
	Keys     int `json:"keys"`
	Handles  int `json:"handles"`
	Watchers int `json:"watchers"`
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ core.Watchable               = (*Storage)(nil)
	_ core.Atomic                  = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)
