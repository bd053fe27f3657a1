package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path      string     `json:"path"`
	ReadOnly  bool       `json:"read_only"`
	CacheSize int        `json:"cache_size"`
	Watchers  int        `json:"watchers"`
	Closed    bool       `json:"closed"`
	LastEvent *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StorageState{
		Path:      s.Path,
		ReadOnly:  s.config.ReadOnly,
		CacheSize: s.cache.Len(),
		Watchers:  s.watchers,
		Closed:    s.closed,
		LastEvent: s.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "fs-storage"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)

func (s *Storage) addWatcher(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers += delta
}

func (s *Storage) recordEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastEvent = &now
}
