package notebook

import (
	"context"
	"errors"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/store"
)

// sessionPattern matches the two keys that make up a session.
const sessionPattern = "{" + store.AuthKey + "," + store.UserKey + "}"

// Snapshot is the session state as seen after a change.
type Snapshot struct {
	Authenticated bool
	User          *core.User
	Err           error // set when the user record could not be read
}

// WatchSession streams the session state: once immediately, then after
// every change to the session keys made through another storage handle.
// Changes made through this service are not echoed back; callers already
// know about them.
//
// The channel is closed when ctx is done or the underlying watch ends.
func (s *Service) WatchSession(ctx context.Context) (<-chan Snapshot, error) {
	w, ok := s.storage.(core.Watchable)
	if !ok {
		return nil, errors.New("storage does not support watching")
	}
	events, err := w.Watch(ctx, sessionPattern)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)

		if !s.emit(ctx, out) {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				s.logger.Debug("session changed elsewhere", "key", e.Key, "type", e.Type)
				if !s.emit(ctx, out) {
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("session watcher failed", "error", err)
	}))

	return out, nil
}

func (s *Service) emit(ctx context.Context, out chan<- Snapshot) bool {
	snap := s.snapshot(ctx)
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Authenticated: s.session.IsAuthenticated(ctx)}
	u, err := s.session.GetUser(ctx)
	if err != nil {
		s.logger.Warn("failed to read user record", "error", err)
		snap.Err = err
		return snap
	}
	snap.User = u
	return snap
}
