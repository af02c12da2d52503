package cache

import (
	"context"
	"time"

	"github.com/matzehuels/flowview/pkg/observability"
)

// Instrumented reports every lookup and write to the registered
// observability cache hooks, labelled with the key type.
type Instrumented struct {
	inner Cache
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Cache) *Instrumented { return &Instrumented{inner: inner} }

// Get retrieves a value and records a hit or miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if ok && err == nil {
		observability.Cache().OnCacheHit(ctx, KeyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, KeyType(key))
	}
	return data, ok, err
}

// Set stores a value and records the write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// Delete removes a value.
func (c *Instrumented) Delete(ctx context.Context, key string) error { return c.inner.Delete(ctx, key) }

// Clear clears the inner cache if it supports clearing.
func (c *Instrumented) Clear(ctx context.Context) error { return Clear(ctx, c.inner) }

// Close closes the inner cache.
func (c *Instrumented) Close() error { return c.inner.Close() }

var (
	_ Cache   = (*Instrumented)(nil)
	_ Clearer = (*Instrumented)(nil)
)
