// Package cli implements the flowview command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/buildinfo"
	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/config"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag; empty means the default path.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "flowview lays out weighted flows as two-column diagrams",
		Long:         `flowview turns a list of weighted source → destination edges into a two-column flow diagram, with interactive SVG output, a terminal explorer and an HTTP API.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowview/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	var directory names.Resolver
	if cfg.Names.File != "" {
		doc, err := flow.ReadFile(cfg.Names.File)
		if err != nil {
			return nil, fverrors.Wrap(fverrors.GetCodeOr(err, fverrors.ErrCodeInvalidConfig), err, "names.file")
		}
		directory = names.Map(doc.Names)
	}
	store, err := c.openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	// Keys carry the version so an upgrade never serves stale renders.
	keyer := cache.NewScopedKeyer(nil, buildinfo.Get().Version+":")
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL.Duration
	if directory != nil {
		runner.UseResolver(directory, cfg.Names.CacheSize)
	}
	return runner, nil
}

// openCache opens the configured backend. An unreachable remote backend
// degrades to no caching rather than failing the command.
func (c *CLI) openCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, cfg.Cache.CacheConfig())
	if err != nil {
		if fverrors.Is(err, fverrors.ErrCodeUnavailable) {
			c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
			return cache.NewNullCache(), nil
		}
		return nil, err
	}
	c.Logger.Debug("opened cache", "backend", cfg.Cache.Backend)
	return store, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// optionsFromConfig seeds pipeline options from the configuration.
func optionsFromConfig(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Canvas:  cfg.Canvas,
		Theme:   cfg.Theme,
		Formats: cfg.Render.Formats,
		Scale:   cfg.Render.Scale,
		Values:  cfg.Render.Values,
	}
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields nil so configured defaults apply.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
