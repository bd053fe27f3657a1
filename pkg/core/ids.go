package core

import (
	"sync"
	"time"
)

// IDGenerator hands out note ids.
type IDGenerator interface {
	Next() int64
}

// ClockIDs derives ids from wall-clock milliseconds.
// Ids are strictly increasing per generator: when the clock has not moved
// past the previous id, the previous id plus one is used instead.
type ClockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClockIDs creates a generator reading the given clock (time.Now if nil).
func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

// Next returns the next id.
func (g *ClockIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.now == nil {
		g.now = time.Now
	}
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
