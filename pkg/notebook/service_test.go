package notebook_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/qafizz/pkg/adapters/memory"
	"github.com/aretw0/qafizz/pkg/core"
	"github.com/aretw0/qafizz/pkg/notebook"
	"github.com/aretw0/qafizz/pkg/store"
)

var (
	fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	alice    = core.User{ID: "u1", FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com"}
)

func ptr(s string) *string { return &s }

func newService(t *testing.T, s core.Storage) *notebook.Service {
	t.Helper()
	return notebook.New(s,
		notebook.WithSaveDelay(0),
		notebook.WithClock(func() time.Time { return fixedNow }),
	)
}

func signedIn(t *testing.T) (*notebook.Service, *memory.Storage) {
	t.Helper()
	s := memory.New()
	svc := newService(t, s)
	require.NoError(t, svc.Login(context.Background(), alice))
	return svc, s
}

func TestService_LoginSeeds(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	notes, err := svc.List(ctx, notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 4)

	// Logging in again does not seed twice.
	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Login(ctx, alice))
	notes, err = svc.List(ctx, notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 4)
}

func TestService_SignedOut(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.New())

	_, err := svc.CurrentUser(ctx)
	assert.ErrorIs(t, err, core.ErrSignedOut)
	_, err = svc.CreateNote(ctx, notebook.Draft{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, core.ErrSignedOut)
	_, err = svc.List(ctx, notebook.Filter{})
	assert.ErrorIs(t, err, core.ErrSignedOut)
	_, err = svc.UpdateUser(ctx, core.UserPatch{FirstName: ptr("x")})
	assert.ErrorIs(t, err, core.ErrSignedOut)
	assert.ErrorIs(t, svc.DeleteNote(ctx, 1), core.ErrSignedOut)
}

func TestService_CreateNote(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, notebook.Draft{
		Title:   "My Note",
		Content: "Remember the milk",
		Tags:    " work, ,important ,",
		Color:   core.ColorPink,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, []string{"work", "important"}, n.Tags)
	assert.Equal(t, notebook.DefaultCategory, n.Category)
	assert.Equal(t, core.ColorPink, n.Color)
	assert.Equal(t, "Just now", n.LastModified)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", n.CreatedAt)
	assert.Nil(t, n.BackgroundImage)

	got, err := svc.Note(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestService_FirstNoteClearsWelcome(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, notebook.Draft{Title: "First", Content: "mine"})
	require.NoError(t, err)

	notes, err := svc.List(ctx, notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 4)
	for _, n := range notes {
		assert.False(t, store.IsWelcome(n), "welcome note should be gone")
	}

	// Later notes clear nothing else.
	_, err = svc.CreateNote(ctx, notebook.Draft{Title: "Second", Content: "mine too"})
	require.NoError(t, err)
	notes, err = svc.List(ctx, notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 5)
}

func TestService_CreateNoteInvalid(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	for name, d := range map[string]notebook.Draft{
		"blank title":   {Title: "  ", Content: "c"},
		"blank content": {Title: "t", Content: "\n"},
		"bad color":     {Title: "t", Content: "c", Color: "bg-red-100"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateNote(ctx, d)
			assert.ErrorIs(t, err, core.ErrInvalidNote)
		})
	}

	notes, err := svc.List(ctx, notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 4, "invalid drafts must not clear or store anything")
}

func TestService_SaveDelay(t *testing.T) {
	s := memory.New()
	svc := notebook.New(s, notebook.WithSaveDelay(30*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, svc.Login(ctx, alice))

	start := time.Now()
	_, err := svc.CreateNote(ctx, notebook.Draft{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestService_SaveDelaySurvivesCancel(t *testing.T) {
	s := memory.New()
	svc := notebook.New(s, notebook.WithSaveDelay(100*time.Millisecond))
	require.NoError(t, svc.Login(context.Background(), alice))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	defer cancel()

	n, err := svc.CreateNote(ctx, notebook.Draft{Title: "Groceries", Content: "milk"})
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	stored, err := svc.Note(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", stored.Title)

	notes, err := svc.List(context.Background(), notebook.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 4, "welcome cleared, three starters plus the new note")
}

func TestService_UpdateNote(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, notebook.Draft{Title: "Draft", Content: "v1", Category: "Work"})
	require.NoError(t, err)

	updated, err := svc.UpdateNote(ctx, n.ID, notebook.Draft{Title: "Final", Content: "v2", Category: "Work", Tags: "done"})
	require.NoError(t, err)
	assert.Equal(t, n.ID, updated.ID)
	assert.Equal(t, n.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, []string{"done"}, updated.Tags)

	_, err = svc.UpdateNote(ctx, 42, notebook.Draft{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_ToggleStarAndDelete(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, notebook.Draft{Title: "Star me", Content: "c"})
	require.NoError(t, err)
	require.False(t, n.Starred)

	n, err = svc.ToggleStar(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, n.Starred)

	n, err = svc.ToggleStar(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, n.Starred)

	require.NoError(t, svc.DeleteNote(ctx, n.ID))
	_, err = svc.Note(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting again is silent.
	require.NoError(t, svc.DeleteNote(ctx, n.ID))
}

func TestService_NotesAreScopedToUser(t *testing.T) {
	ns := memory.NewNamespace()
	ctx := context.Background()
	svc := newService(t, ns.Open())

	require.NoError(t, svc.Login(ctx, alice))
	n, err := svc.CreateNote(ctx, notebook.Draft{Title: "Alice only", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, svc.Login(ctx, core.User{ID: "u2", FirstName: "Bob"}))
	_, err = svc.Note(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.ToggleStar(ctx, n.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_UpdateUser(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	u, err := svc.UpdateUser(ctx, core.UserPatch{FirstName: ptr("Alicia")})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, "Liddell", u.LastName)

	stored, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, stored)

	same, err := svc.UpdateUser(ctx, core.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, u, same)
}

func TestService_ListFilter(t *testing.T) {
	svc, _ := signedIn(t)
	ctx := context.Background()

	work, err := svc.List(ctx, notebook.Filter{Category: "Work"})
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "Meeting Notes - Q4 Planning", work[0].Title)

	byTag, err := svc.List(ctx, notebook.Filter{Search: "SHOPPING"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Shopping List", byTag[0].Title)
}

func TestService_Render(t *testing.T) {
	svc := newService(t, memory.New())
	html, err := svc.Render(core.Note{Content: "# Title\n\n- a\n- b"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "<h1>Title</h1>"), html)
	assert.Contains(t, html, "<li>a</li>")
}
