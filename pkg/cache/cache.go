// Package cache stores computed diagrams and rendered artifacts.
//
// # Backends
//
//   - [NullCache]: stores nothing (caching disabled)
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: bounded in-process LRU, for the HTTP service and tests
//   - [RedisCache]: shared TTL cache for multi-instance deployments
//   - [MongoCache]: durable documents with a TTL index
//
// [Compressed] wraps any backend with snappy compression and [Instrumented]
// reports hits, misses and writes to the observability cache hooks.
// [Open] builds the configured stack from a [Config].
//
// # Keys
//
// Keys come from a [Keyer]. The default keyer hashes the inputs of each stage,
// so identical edges with identical options map to the same entry no matter
// which entry point computed them. [ScopedKeyer] prefixes keys to isolate
// tenants sharing one backend.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// TTLDiagram is how long a computed diagram stays cached.
	TTLDiagram = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact stays cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. Callers treat backend errors as misses and recompute.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return NullCache{} }

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error { return nil }

// Clear does nothing.
func (NullCache) Clear(context.Context) error { return nil }

// Close does nothing.
func (NullCache) Close() error { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
