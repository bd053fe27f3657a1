package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/typed"
)

// Session holds the authentication flag and the current user record.
type Session struct {
	storage core.Storage
	user    *typed.Key[core.User]
	logger  *slog.Logger
}

// NewSession creates a session store over storage.
func NewSession(storage core.Storage, opts ...Option) *Session {
	o := buildOptions(opts)
	return &Session{
		storage: storage,
		user:    typed.NewKey[core.User](storage, UserKey),
		logger:  o.logger,
	}
}

// IsAuthenticated reports whether the auth flag holds the literal "true".
// It never fails: unavailable or broken storage reads as signed out.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	v, ok, err := s.storage.Get(ctx, AuthKey)
	if err != nil {
		s.logger.Debug("auth flag unreadable, treating as signed out", "error", err)
		return false
	}
	return ok && v == "true"
}

// Login stores the auth flag and the user record, replacing any previous session.
// The user is not validated.
func (s *Session) Login(ctx context.Context, user core.User) error {
	if err := s.storage.Set(ctx, AuthKey, "true"); err != nil {
		return fmt.Errorf("failed to set auth flag: %w", err)
	}
	if err := s.user.Store(ctx, user); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	s.logger.Debug("session started", "user", user.ID)
	return nil
}

// Logout removes the auth flag and the user record. It is idempotent.
func (s *Session) Logout(ctx context.Context) error {
	err := errors.Join(
		s.storage.Remove(ctx, AuthKey),
		s.storage.Remove(ctx, UserKey),
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// GetUser returns the stored user, or nil when there is none or the storage
// is unavailable. A malformed record is returned as an error.
func (s *Session) GetUser(ctx context.Context) (*core.User, error) {
	u, ok, err := s.user.Load(ctx)
	if errors.Is(err, core.ErrUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// UpdateUser shallow-merges patch into the stored user record and rewrites
// it. Fields of the stored record the patch does not name are kept as they
// are, including ones unknown to core.User. No-op when no user is stored.
func (s *Session) UpdateUser(ctx context.Context, patch core.UserPatch) error {
	record := typed.NewKey[map[string]any](s.storage, UserKey)

	overlay, err := patchFields(patch)
	if err != nil {
		return err
	}

	updated := false
	err = record.Update(ctx, func(current map[string]any, ok bool) (map[string]any, error) {
		if !ok || current == nil {
			return nil, core.ErrUnchanged
		}
		for k, v := range overlay {
			current[k] = v
		}
		updated = true
		return current, nil
	})
	if errors.Is(err, core.ErrUnavailable) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if updated {
		s.logger.Debug("user updated", "fields", len(overlay))
	}
	return nil
}

func patchFields(patch core.UserPatch) (map[string]any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user patch: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to convert user patch to map: %w", err)
	}
	return fields, nil
}
