package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/qafizz/pkg/adapters/fs"
	"github.com/aretw0/qafizz/pkg/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStorage(t *testing.T, dir string) *fs.Storage {
	t.Helper()
	s := fs.New(fs.Config{Path: dir, Debounce: 10 * time.Millisecond})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")
	s := newStorage(t, dir)

	_, ok, err := s.Get(ctx, "qafizz_auth")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "qafizz_auth", "true"))
	v, ok, err := s.Get(ctx, "qafizz_auth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	raw, err := os.ReadFile(filepath.Join(dir, "qafizz_auth"))
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	require.NoError(t, s.Remove(ctx, "qafizz_auth"))
	require.NoError(t, s.Remove(ctx, "qafizz_auth"), "removing an absent key is a no-op")
	_, ok, err = s.Get(ctx, "qafizz_auth")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_SeesExternalEdits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newStorage(t, dir)

	require.NoError(t, s.Set(ctx, "k", "one"))
	_, _, err := s.Get(ctx, "k") // warm cache
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "k"), []byte("two, longer"), 0644))
	v, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two, longer", v)
}

func TestStorage_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t, t.TempDir())

	for _, key := range []string{"", ".hidden", "a/b", `a\b`} {
		assert.Error(t, s.Set(ctx, key, "v"), "key %q", key)
		_, _, err := s.Get(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestStorage_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, newStorage(t, dir).Set(ctx, "k", "v"))

	ro := fs.New(fs.Config{Path: dir, ReadOnly: true})
	require.NoError(t, ro.Initialize(ctx))

	v, ok, err := ro.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	assert.ErrorIs(t, ro.Set(ctx, "k", "x"), core.ErrReadOnly)
	assert.ErrorIs(t, ro.Remove(ctx, "k"), core.ErrReadOnly)
}

func TestStorage_MissingDirectory(t *testing.T) {
	s := fs.New(fs.Config{Path: filepath.Join(t.TempDir(), "nope"), MustExist: true})
	assert.ErrorIs(t, s.Initialize(context.Background()), core.ErrUnavailable)
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t, t.TempDir())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Set(ctx, "k", "v"), core.ErrUnavailable)
	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestStorage_UpdateAcrossHandles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := newStorage(t, dir)
	b := newStorage(t, dir)

	incr := func(current string, ok bool) (string, bool, error) {
		n := 0
		if ok {
			var err error
			if n, err = strconv.Atoi(current); err != nil {
				return "", false, err
			}
		}
		return strconv.Itoa(n + 1), true, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		h := a
		if i%2 == 1 {
			h = b
		}
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Update(ctx, "counter", incr))
		}()
	}
	wg.Wait()

	v, _, err := a.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "20", v)

	_, err = os.Stat(filepath.Join(dir, fs.LockFile))
	assert.True(t, os.IsNotExist(err), "lock file must be released")
}

func TestStorage_UpdateUnchangedAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t, t.TempDir())
	require.NoError(t, s.Set(ctx, "k", "v"))

	require.NoError(t, s.Update(ctx, "k", func(string, bool) (string, bool, error) {
		return "", false, core.ErrUnchanged
	}))
	v, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Update(ctx, "k", func(string, bool) (string, bool, error) {
		return "", false, nil
	}))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestStorage_UpdateBreaksStaleLock(t *testing.T) {
	dir := t.TempDir()
	s := newStorage(t, dir)

	lock := filepath.Join(dir, fs.LockFile)
	require.NoError(t, os.WriteFile(lock, []byte("4242\n"), 0644))
	old := time.Now().Add(-2 * fs.StaleLockAge)
	require.NoError(t, os.Chtimes(lock, old, old))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Update(ctx, "qafizz_notes", func(string, bool) (string, bool, error) {
		return "[]", true, nil
	}))

	v, ok, err := s.Get(ctx, "qafizz_notes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
	_, err = os.Stat(lock)
	assert.True(t, os.IsNotExist(err), "lock file must be released")
}

func collect(ch <-chan core.Event, d time.Duration) []core.Event {
	var out []core.Event
	timeout := time.After(d)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			return out
		}
	}
}

func TestStorage_WatchOtherHandles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	watcher := newStorage(t, dir)
	other := newStorage(t, dir)

	events, err := watcher.Watch(ctx, "qafizz_*")
	require.NoError(t, err)

	// Own writes are suppressed.
	require.NoError(t, watcher.Set(ctx, "qafizz_user", `{"id":"u1"}`))
	assert.Empty(t, collect(events, 150*time.Millisecond))

	require.NoError(t, other.Set(ctx, "qafizz_auth", "true"))
	require.NoError(t, other.Set(ctx, "unrelated", "x"))
	got := collect(events, 300*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, core.EventSet, got[0].Type)
	assert.Equal(t, "qafizz_auth", got[0].Key)

	require.NoError(t, other.Remove(ctx, "qafizz_auth"))
	got = collect(events, 300*time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, core.EventRemove, got[0].Type)

	state := watcher.State().(fs.StorageState)
	assert.Equal(t, 1, state.Watchers)
	assert.NotNil(t, state.LastEvent)

	cancel()
	_, open := <-events
	for open {
		_, open = <-events
	}
}

func TestStorage_WatchDebounces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	watcher := fs.New(fs.Config{Path: dir, Debounce: 100 * time.Millisecond})
	require.NoError(t, watcher.Initialize(ctx))
	other := newStorage(t, dir)

	events, err := watcher.Watch(ctx, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, other.Set(ctx, "qafizz_notes", strconv.Itoa(i)))
	}
	got := collect(events, 500*time.Millisecond)
	assert.Len(t, got, 1)
}

func TestStorage_WatchInvalidPattern(t *testing.T) {
	s := newStorage(t, t.TempDir())
	_, err := s.Watch(context.Background(), "[")
	assert.Error(t, err)
}
