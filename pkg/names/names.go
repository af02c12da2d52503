// Package names resolves entity ids to display names.
//
// The diagram core treats entity ids as opaque strings. A [Resolver] maps an
// id to the label shown next to its node; when resolution fails the raw id is
// shown instead (see [Display]).
//
// Resolvers compose: [Chain] tries several in order and [Cached] memoizes a
// slow resolver (for example one backed by a directory service) in an LRU.
package names

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolver maps an entity id to a display name.
// The boolean result is false when the id is unknown.
type Resolver interface {
	Resolve(id string) (string, bool)
}

// Display resolves id through r, falling back to the raw id when r is nil,
// the id is unknown, or the resolved name is blank.
func Display(r Resolver, id string) string {
	if r == nil {
		return id
	}
	name, ok := r.Resolve(id)
	if !ok || strings.TrimSpace(name) == "" {
		return id
	}
	return name
}

// Map is a static id → name table.
type Map map[string]string

// Resolve implements Resolver.
func (m Map) Resolve(id string) (string, bool) {
	name, ok := m[id]
	return name, ok
}

// Func adapts a plain function to the Resolver interface.
type Func func(id string) (string, bool)

// Resolve implements Resolver.
func (f Func) Resolve(id string) (string, bool) { return f(id) }

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(id string) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if name, ok := r.Resolve(id); ok {
			return name, true
		}
	}
	return "", false
}

// DefaultCacheSize is the LRU capacity used by [Cached] when size <= 0.
const DefaultCacheSize = 4096

type cachedResult struct {
	name string
	ok   bool
}

type cached struct {
	inner Resolver
	lru   *lru.Cache[string, cachedResult]
}

// Cached memoizes inner in an LRU of the given size. Misses are cached too,
// so a failing lookup is not retried until it is evicted.
func Cached(inner Resolver, size int) Resolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	c, _ := lru.New[string, cachedResult](size)
	return &cached{inner: inner, lru: c}
}

// Resolve implements Resolver.
func (c *cached) Resolve(id string) (string, bool) {
	if r, ok := c.lru.Get(id); ok {
		return r.name, r.ok
	}
	var r cachedResult
	if c.inner != nil {
		r.name, r.ok = c.inner.Resolve(id)
	}
	c.lru.Add(id, r)
	return r.name, r.ok
}
