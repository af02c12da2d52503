package cache

import (
	"context"
	"fmt"
	"time"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// TTL overrides the per-stage default lifetimes when positive.
	TTL time.Duration

	// Dir is the FileCache directory.
	Dir string
	// Entries bounds the MemoryCache.
	Entries int

	RedisURL string
	// Prefix namespaces keys in shared Redis databases.
	Prefix string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Compress stores entries snappy-compressed.
	Compress bool
}

// Open builds the configured backend, wrapped for compression (if enabled)
// and instrumentation. An empty backend means "file" when Dir is set and
// "none" otherwise.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendNone
		if cfg.Dir != "" {
			backend = BackendFile
		}
	}

	var (
		c   Cache
		err error
	)
	switch backend {
	case BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, fverrors.New(fverrors.ErrCodeInvalidConfig, "file cache requires a directory")
		}
		c, err = NewFileCache(cfg.Dir)
	case BackendMemory:
		c = NewMemoryCache(cfg.Entries)
	case BackendRedis:
		if err := fverrors.ValidateURL(cfg.RedisURL, "redis", "rediss"); err != nil {
			return nil, err
		}
		c, err = NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
	case BackendMongo:
		if err := fverrors.ValidateURL(cfg.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return nil, err
		}
		if cfg.MongoDatabase == "" {
			return nil, fverrors.New(fverrors.ErrCodeInvalidConfig, "mongo cache requires a database")
		}
		c, err = NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, fverrors.New(fverrors.ErrCodeInvalidConfig,
			"unknown cache backend %q (must be one of: none, file, memory, redis, mongo)", backend)
	}
	if err != nil {
		return nil, fverrors.Wrap(fverrors.ErrCodeUnavailable, err, "open %s cache", backend)
	}

	if cfg.Compress {
		c = NewCompressed(c)
	}
	return NewInstrumented(c), nil
}

// Clear drops every entry of c if its backend supports it.
func Clear(ctx context.Context, c Cache) error {
	cl, ok := c.(Clearer)
	if !ok {
		return fverrors.New(fverrors.ErrCodeUnsupported, "cache backend %T cannot be cleared", c)
	}
	if err := cl.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// TTLOr returns ttl when positive and fallback otherwise.
func TTLOr(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return fallback
}
