package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Caching wraps a Store and serves repeated reads of the same blob from
// memory. Blobs are write-once, so cached content never goes stale except
// through Delete or an overwrite via Create, both of which invalidate.
//
// Concurrent first reads of the same blob are coalesced into a single
// backend fetch.
type Caching struct {
	inner Store

	mu    sync.RWMutex
	cache map[string][]byte
	group singleflight.Group
}

// NewCaching creates a read-through caching wrapper around inner.
func NewCaching(inner Store) *Caching {
	return &Caching{
		inner: inner,
		cache: make(map[string][]byte),
	}
}

// Create passes through to the inner store and invalidates any cached
// content under the same name once the write completes.
func (c *Caching) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	w, err := c.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingWriter{WriteCloser: w, cache: c, name: name}, nil
}

// Open returns the cached content when present, fetching and filling the
// cache otherwise.
func (c *Caching) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	c.mu.RLock()
	data, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		r, err := c.inner.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[name] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(v.([]byte))), nil
}

// Delete invalidates the cache entry and passes through.
func (c *Caching) Delete(ctx context.Context, name string) error {
	c.invalidate(name)
	return c.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (c *Caching) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

func (c *Caching) invalidate(name string) {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()
}

type invalidatingWriter struct {
	io.WriteCloser
	cache *Caching
	name  string
}

func (w *invalidatingWriter) Close() error {
	err := w.WriteCloser.Close()
	w.cache.invalidate(w.name)
	return err
}
