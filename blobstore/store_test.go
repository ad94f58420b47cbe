package blobstore

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, s Store, name, content string) {
	t.Helper()
	w, err := s.Create(context.Background(), name)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func get(t *testing.T, s Store, name string) string {
	t.Helper()
	r, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	put(t, s, "snapshots/a", "alpha")
	put(t, s, "snapshots/b", "beta")
	put(t, s, "other", "gamma")

	assert.Equal(t, "alpha", get(t, s, "snapshots/a"))

	names, err := s.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/a", "snapshots/b"}, names)

	// Overwrite replaces content.
	put(t, s, "snapshots/a", "alpha2")
	assert.Equal(t, "alpha2", get(t, s, "snapshots/a"))

	require.NoError(t, s.Delete(ctx, "snapshots/a"))
	require.NoError(t, s.Delete(ctx, "snapshots/a")) // idempotent
	_, err = s.Open(ctx, "snapshots/a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestLocal(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	testStore(t, s)
}

func TestLocalHidesInFlightWrites(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	w, err := s.Create(ctx, "snap")
	require.NoError(t, err)
	_, err = io.WriteString(w, "partial")
	require.NoError(t, err)

	// Not visible until Close.
	_, err = s.Open(ctx, "snap")
	assert.ErrorIs(t, err, ErrNotFound)
	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	assert.Equal(t, "partial", get(t, s, "snap"))
}

func TestCaching(t *testing.T) {
	testStore(t, NewCaching(NewMemory()))
}

// countingStore counts backend Open calls.
type countingStore struct {
	Store
	opens atomic.Int64
}

func (c *countingStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	c.opens.Add(1)
	return c.Store.Open(ctx, name)
}

func TestCachingServesRepeatedReadsFromMemory(t *testing.T) {
	inner := &countingStore{Store: NewMemory()}
	s := NewCaching(inner)
	put(t, s, "snap", "content")

	for range 3 {
		assert.Equal(t, "content", get(t, s, "snap"))
	}
	assert.Equal(t, int64(1), inner.opens.Load())

	// Delete invalidates; the next read goes to the backend again.
	require.NoError(t, s.Delete(context.Background(), "snap"))
	_, err := s.Open(context.Background(), "snap")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingCoalescesConcurrentFetches(t *testing.T) {
	inner := &countingStore{Store: NewMemory()}
	put(t, inner, "snap", "content")

	s := NewCaching(inner)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Open(context.Background(), "snap")
			if err != nil {
				return
			}
			_, _ = io.ReadAll(r)
			_ = r.Close()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.opens.Load(), int64(2))
}

func TestCachingPropagatesNotFound(t *testing.T) {
	s := NewCaching(NewMemory())
	_, err := s.Open(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
