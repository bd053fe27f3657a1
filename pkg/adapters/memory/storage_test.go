package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/qafizz/pkg/adapters/memory"
	"github.com/aretw0/qafizz/pkg/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)

	// Removing again is a no-op.
	require.NoError(t, s.Remove(ctx, "k"))
}

func TestStorage_SharedNamespace(t *testing.T) {
	ctx := context.Background()
	ns := memory.NewNamespace()
	a, b := ns.Open(), ns.Open()

	require.NoError(t, a.Set(ctx, "shared", "x"))
	v, ok, err := b.Get(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestStorage_Update(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	err := s.Update(ctx, "counter", func(cur string, ok bool) (string, bool, error) {
		assert.False(t, ok)
		return "1", true, nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, "counter", func(cur string, ok bool) (string, bool, error) {
		assert.True(t, ok)
		assert.Equal(t, "1", cur)
		return "", false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Keys())

	boom := errors.New("boom")
	err = s.Update(ctx, "counter", func(string, bool) (string, bool, error) { return "x", true, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Keys())
}

func TestStorage_WatchOtherHandlesOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ns := memory.NewNamespace()
	writer, reader := ns.Open(), ns.Open()

	own, err := writer.Watch(ctx, "*")
	require.NoError(t, err)
	other, err := reader.Watch(ctx, "qafizz_*")
	require.NoError(t, err)

	require.NoError(t, writer.Set(ctx, "qafizz_auth", "true"))
	require.NoError(t, writer.Set(ctx, "unrelated", "1"))
	require.NoError(t, writer.Remove(ctx, "qafizz_auth"))

	select {
	case e := <-other:
		assert.Equal(t, core.EventSet, e.Type)
		assert.Equal(t, "qafizz_auth", e.Key)
	case <-time.After(time.Second):
		t.Fatal("expected set event")
	}
	select {
	case e := <-other:
		assert.Equal(t, core.EventRemove, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected remove event")
	}

	select {
	case e := <-own:
		t.Fatalf("writer received its own event: %v", e)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	// Channels close once the context is done.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-other:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestStorage_WatchInvalidPattern(t *testing.T) {
	_, err := memory.New().Watch(context.Background(), "[")
	assert.Error(t, err)
}

func TestStorage_ClosedHandleStopsReceiving(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ns := memory.NewNamespace()
	a, b := ns.Open(), ns.Open()
	events, err := b.Watch(ctx, "")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	require.NoError(t, a.Set(ctx, "k", "v"))
	select {
	case e := <-events:
		t.Fatalf("closed handle received %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var s core.Storage = memory.Unavailable{}

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), core.ErrUnavailable)
	assert.ErrorIs(t, s.Remove(ctx, "k"), core.ErrUnavailable)
}

func TestStorage_State(t *testing.T) {
	ns := memory.NewNamespace()
	s := ns.Open()
	_ = ns.Open()
	require.NoError(t, s.Set(context.Background(), "a", "1"))

	st, ok := s.State().(memory.State)
	require.True(t, ok)
	assert.Equal(t, 1, st.Keys)
	assert.Equal(t, 2, st.Handles)
	assert.Equal(t, "memory", s.ComponentType())
}
