package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/typed"
)

// WelcomeMarker identifies seeded notes by title.
const WelcomeMarker = "Welcome to Qafizz"

// IsWelcome reports whether n carries the welcome marker in its title.
func IsWelcome(n core.Note) bool {
	return strings.Contains(n.Title, WelcomeMarker)
}

// Notes is the flat note collection shared by all users.
// Every write rewrites the whole collection.
type Notes struct {
	storage core.Storage
	all     *typed.Key[[]core.Note]
	ids     core.IDGenerator
	now     func() time.Time
	logger  *slog.Logger
}

// NewNotes creates a note store over storage.
func NewNotes(storage core.Storage, opts ...Option) *Notes {
	o := buildOptions(opts)
	return &Notes{
		storage: storage,
		all:     typed.NewKey[[]core.Note](storage, NotesKey),
		ids:     o.ids,
		now:     o.now,
		logger:  o.logger,
	}
}

// GetNotes returns the notes owned by userID in storage order.
// Unavailable or empty storage yields an empty slice.
func (s *Notes) GetNotes(ctx context.Context, userID string) ([]core.Note, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]core.Note, 0, len(all))
	for _, n := range all {
		if n.UserID == userID {
			owned = append(owned, n)
		}
	}
	return owned, nil
}

// SaveNote upserts note by id across the whole collection: an entry with
// the same id is replaced in place whoever owns it, otherwise the note is
// appended. There is no ownership check.
func (s *Notes) SaveNote(ctx context.Context, note core.Note) error {
	err := s.all.Update(ctx, func(all []core.Note, _ bool) ([]core.Note, error) {
		return upsert(all, note), nil
	})
	if err != nil {
		return fmt.Errorf("failed to save note %d: %w", note.ID, err)
	}
	s.logger.Debug("note saved", "id", note.ID, "user", note.UserID)
	return nil
}

// DeleteNote removes the note matching both id and userID.
// Deleting a note that does not exist is a no-op.
func (s *Notes) DeleteNote(ctx context.Context, id int64, userID string) error {
	return s.removeWhere(ctx, "delete note", func(n core.Note) bool {
		return n.ID == id && n.UserID == userID
	})
}

// ClearDefaultNotes removes every note of userID whose title carries the
// welcome marker. Notes of other users are never touched.
func (s *Notes) ClearDefaultNotes(ctx context.Context, userID string) error {
	return s.removeWhere(ctx, "clear default notes", func(n core.Note) bool {
		return n.UserID == userID && IsWelcome(n)
	})
}

// InitializeDefaultNotes seeds the starter notes for userID when the user
// owns no note at all; otherwise it does nothing.
//
// Deleting every note makes the user eligible for seeding again.
func (s *Notes) InitializeDefaultNotes(ctx context.Context, userID string) error {
	seeded := 0
	err := s.all.Update(ctx, func(all []core.Note, _ bool) ([]core.Note, error) {
		for _, n := range all {
			if n.UserID == userID {
				return nil, core.ErrUnchanged
			}
		}
		for _, n := range DefaultNotes(userID, s.ids, s.now()) {
			all = upsert(all, n)
			seeded++
		}
		return all, nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed notes for %s: %w", userID, err)
	}
	if seeded > 0 {
		s.logger.Info("seeded default notes", "user", userID, "count", seeded)
	}
	return nil
}

func (s *Notes) loadAll(ctx context.Context) ([]core.Note, error) {
	all, _, err := s.all.Load(ctx)
	if errors.Is(err, core.ErrUnavailable) {
		return nil, nil
	}
	return all, err
}

func (s *Notes) removeWhere(ctx context.Context, op string, match func(core.Note) bool) error {
	removed := 0
	err := s.all.Update(ctx, func(all []core.Note, _ bool) ([]core.Note, error) {
		kept := make([]core.Note, 0, len(all))
		for _, n := range all {
			if match(n) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if removed == 0 {
			return nil, core.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if removed > 0 {
		s.logger.Debug(op, "removed", removed)
	}
	return nil
}

func upsert(all []core.Note, note core.Note) []core.Note {
	for i := range all {
		if all[i].ID == note.ID {
			all[i] = note
			return all
		}
	}
	return append(all, note)
}

// NotesState exposes the note store's configuration for observability.
type NotesState struct {
	StorageType string `json:"storage_type"`
	Atomic      bool   `json:"atomic"`
	Watchable   bool   `json:"watchable"`
}

// State implements introspection.Introspectable.
func (s *Notes) State() any {
	storageType := "storage"
	if comp, ok := s.storage.(introspection.Component); ok {
		storageType = comp.ComponentType()
	}
	_, atomic := s.storage.(core.Atomic)
	_, watchable := s.storage.(core.Watchable)
	return NotesState{
		StorageType: storageType,
		Atomic:      atomic,
		Watchable:   watchable,
	}
}

// ComponentType implements introspection.Component.
func (s *Notes) ComponentType() string {
	return "note-store"
}

var _ introspection.Introspectable = (*Notes)(nil)
var _ introspection.Component = (*Notes)(nil)
