package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-stage cache lifetimes when positive.
	TTL time.Duration

	// Names is the fallback resolver for builds whose options set none.
	// Lookups are memoized for the runner's lifetime.
	Names names.Resolver
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.Logger = opts.Logger.With("run", result.RunID[:8])

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	// Stage 1: Decode
	decodeStart := time.Now()
	doc, err := Decode(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	result.Stats.DecodeTime = time.Since(decodeStart)
	result.Stats.EdgeCount = len(doc.Edges)

	// Stage 2: Build
	buildStart := time.Now()
	d, hit, err := r.BuildWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Diagram = d
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = len(d.Nodes)
	result.Stats.LinkCount = len(d.Links)
	result.Stats.DroppedEdges = d.Dropped
	result.CacheInfo.DiagramHit = hit

	opts.Logger.Info("built diagram",
		"edges", result.Stats.EdgeCount,
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"cached", hit,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.render(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.DiagramHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Decode resolves the input document. Decoding is not cached.
func (r *Runner) Decode(ctx context.Context, opts Options) (flow.Document, error) {
	r.applyLogger(&opts)
	return Decode(ctx, opts)
}

// BuildWithCacheInfo builds a diagram with caching and returns cache hit info.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, doc flow.Document, opts Options) (sankey.Diagram, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return sankey.Diagram{}, false, err
	}
	r.applyLogger(&opts)
	if opts.Resolver == nil {
		opts.Resolver = r.Names
	}

	edgesHash, err := cache.HashJSON(doc.Edges)
	if err != nil {
		return sankey.Diagram{}, false, fmt.Errorf("hash edges: %w", err)
	}
	keyOpts, err := opts.DiagramKeyOpts(doc)
	if err != nil {
		return sankey.Diagram{}, false, err
	}
	cacheKey := r.Keyer.DiagramKey(edgesHash, keyOpts)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if d, err := sankey.UnmarshalDiagram(data); err == nil {
				return d, true, nil
			}
			// Corrupt entries fall through to a rebuild.
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
	}

	d, err := BuildDiagram(ctx, doc, opts)
	if err != nil {
		return sankey.Diagram{}, false, err
	}

	if data, err := sankey.MarshalDiagram(d); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLOr(r.TTL, cache.TTLDiagram)); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		}
	}
	return d, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, doc flow.Document, opts Options) (sankey.Diagram, error) {
	d, _, err := r.BuildWithCacheInfo(ctx, doc, opts)
	return d, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, bool, error) {
	artifacts, _, hit, err := r.render(ctx, d, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// render looks up each format in the cache and renders only the misses.
// It also returns the diagram hash the artifacts are keyed by.
func (r *Runner) render(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	diagramData, err := sankey.MarshalDiagram(d)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	diagramHash := cache.Hash(diagramData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	seen := make(map[string]bool, len(opts.Formats))
	for _, format := range opts.Formats {
		if seen[format] {
			continue
		}
		seen[format] = true
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		return artifacts, diagramHash, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, d, renderOpts)
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLOr(r.TTL, cache.TTLArtifact)); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return artifacts, diagramHash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// UseResolver installs res as the fallback resolver, memoized in an LRU
// holding at most size lookups.
func (r *Runner) UseResolver(res names.Resolver, size int) {
	r.Names = names.Cached(res, size)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
