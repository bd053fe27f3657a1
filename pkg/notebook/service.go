// Package notebook is the application layer over the session and note
// stores. It carries the rules the dashboard enforces around the stores:
// seeding on login, the first-note transition, note drafts and filtering.
package notebook

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/store"
)

// Service composes the session store and the note store.
type Service struct {
	storage   core.Storage
	session   *store.Session
	notes     *store.Notes
	ids       core.IDGenerator
	now       func() time.Time
	saveDelay time.Duration
	md        goldmark.Markdown
	logger    *slog.Logger
}

// New creates a notebook service over storage.
func New(storage core.Storage, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.ids == nil {
		o.ids = core.NewClockIDs(o.now)
	}

	storeOpts := []store.Option{
		store.WithLogger(o.logger),
		store.WithIDGenerator(o.ids),
		store.WithClock(o.now),
	}
	return &Service{
		storage:   storage,
		session:   store.NewSession(storage, storeOpts...),
		notes:     store.NewNotes(storage, storeOpts...),
		ids:       o.ids,
		now:       o.now,
		saveDelay: o.saveDelay,
		md:        goldmark.New(),
		logger:    o.logger,
	}
}

// Session exposes the underlying session store.
func (s *Service) Session() *store.Session {
	return s.session
}

// Notes exposes the underlying note store.
func (s *Service) Notes() *store.Notes {
	return s.notes
}

// Storage returns the storage both stores share.
func (s *Service) Storage() core.Storage {
	return s.storage
}

// Login starts a session for user and seeds the starter notes if the
// user owns none.
func (s *Service) Login(ctx context.Context, user core.User) error {
	if err := s.session.Login(ctx, user); err != nil {
		return err
	}
	if err := s.notes.InitializeDefaultNotes(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("user signed in", "user", user.ID)
	return nil
}

// Logout ends the session. Notes are kept.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// CurrentUser returns the signed-in user or core.ErrSignedOut.
func (s *Service) CurrentUser(ctx context.Context) (core.User, error) {
	if !s.session.IsAuthenticated(ctx) {
		return core.User{}, core.ErrSignedOut
	}
	u, err := s.session.GetUser(ctx)
	if err != nil {
		return core.User{}, err
	}
	if u == nil {
		return core.User{}, core.ErrSignedOut
	}
	return *u, nil
}

// UpdateUser merges patch into the signed-in user and returns the result.
func (s *Service) UpdateUser(ctx context.Context, patch core.UserPatch) (core.User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return core.User{}, err
	}
	if patch.IsEmpty() {
		return u, nil
	}
	if err := s.session.UpdateUser(ctx, patch); err != nil {
		return core.User{}, err
	}
	return patch.Apply(u), nil
}

// CreateNote stores a new note for the signed-in user.
//
// The first note a user writes themselves clears the welcome note. The
// configured save delay runs before anything is stored. Once the delay has
// started, cancelling ctx no longer stops the note from being saved.
func (s *Service) CreateNote(ctx context.Context, d Draft) (core.Note, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return core.Note{}, err
	}
	if err := d.Validate(); err != nil {
		return core.Note{}, err
	}

	if s.saveDelay > 0 {
		ctx = context.WithoutCancel(ctx)
		<-time.After(s.saveDelay)
	}

	n := d.apply(core.Note{
		ID:        s.ids.Next(),
		UserID:    u.ID,
		CreatedAt: core.Timestamp(s.now()),
	})

	first, err := s.isFirstOwnNote(ctx, u.ID)
	if err != nil {
		return core.Note{}, err
	}
	if first {
		if err := s.notes.ClearDefaultNotes(ctx, u.ID); err != nil {
			return core.Note{}, err
		}
		s.logger.Debug("first note created, welcome note cleared", "user", u.ID)
	}

	if err := s.notes.SaveNote(ctx, n); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

// isFirstOwnNote reports whether userID owns nothing but starter notes.
func (s *Service) isFirstOwnNote(ctx context.Context, userID string) (bool, error) {
	owned, err := s.notes.GetNotes(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range owned {
		if !store.IsStarter(n) {
			return false, nil
		}
	}
	return true, nil
}

// Note returns the signed-in user's note with the given id.
func (s *Service) Note(ctx context.Context, id int64) (core.Note, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return core.Note{}, err
	}
	owned, err := s.notes.GetNotes(ctx, u.ID)
	if err != nil {
		return core.Note{}, err
	}
	for _, n := range owned {
		if n.ID == id {
			return n, nil
		}
	}
	return core.Note{}, fmt.Errorf("%w: %d", core.ErrNotFound, id)
}

// UpdateNote rewrites an existing note from d. Id, owner and creation
// time are kept.
func (s *Service) UpdateNote(ctx context.Context, id int64, d Draft) (core.Note, error) {
	if err := d.Validate(); err != nil {
		return core.Note{}, err
	}
	n, err := s.Note(ctx, id)
	if err != nil {
		return core.Note{}, err
	}
	n = d.apply(n)
	if err := s.notes.SaveNote(ctx, n); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

// ToggleStar flips the starred flag of a note and returns it.
func (s *Service) ToggleStar(ctx context.Context, id int64) (core.Note, error) {
	n, err := s.Note(ctx, id)
	if err != nil {
		return core.Note{}, err
	}
	n.Starred = !n.Starred
	if err := s.notes.SaveNote(ctx, n); err != nil {
		return core.Note{}, err
	}
	return n, nil
}

// DeleteNote removes one of the signed-in user's notes.
// A missing id is not an error.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return s.notes.DeleteNote(ctx, id, u.ID)
}

// List returns the signed-in user's notes passing f, in storage order.
func (s *Service) List(ctx context.Context, f Filter) ([]core.Note, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.notes.GetNotes(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return f.Apply(owned), nil
}

// Render converts the markdown content of n to HTML.
func (s *Service) Render(n core.Note) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(n.Content), &buf); err != nil {
		return "", fmt.Errorf("failed to render note %d: %w", n.ID, err)
	}
	return buf.String(), nil
}
