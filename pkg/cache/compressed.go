package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/snappy"
)

// Compressed stores values snappy-compressed in an inner cache. SVG and
// JSON artifacts compress well, which matters for the remote backends.
type Compressed struct {
	inner Cache
}

// NewCompressed wraps inner.
func NewCompressed(inner Cache) *Compressed { return &Compressed{inner: inner} }

// Get retrieves and decompresses a value. Entries that fail to decode are
// treated as misses.
func (c *Compressed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

// Set compresses and stores a value.
func (c *Compressed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, snappy.Encode(nil, data), ttl); err != nil {
		return fmt.Errorf("compressed set: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *Compressed) Delete(ctx context.Context, key string) error { return c.inner.Delete(ctx, key) }

// Clear clears the inner cache if it supports clearing.
func (c *Compressed) Clear(ctx context.Context) error { return Clear(ctx, c.inner) }

// Close closes the inner cache.
func (c *Compressed) Close() error { return c.inner.Close() }

var (
	_ Cache   = (*Compressed)(nil)
	_ Clearer = (*Compressed)(nil)
)
