// Package config loads flowview settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at [DefaultPath] or an explicit path
//  3. FLOWVIEW_* environment variables, including those from a .env file in
//     the working directory
//
// The merged result is validated before it is returned, so callers can use it
// without further checks.
//
// Example config.toml:
//
//	[canvas]
//	width = 1200
//
//	[theme]
//	primary = "#6366f1"
//	secondary = "#f59e0b"
//
//	[names]
//	file = "directory.yaml"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/flowview/pkg/cache"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

const appName = "flowview"

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// =============================================================================
// Config
// =============================================================================

// Config is the complete flowview configuration.
type Config struct {
	Canvas layout.Config `toml:"canvas"`
	Theme  theme.Theme   `toml:"theme"`
	Render RenderConfig  `toml:"render"`
	Names  NamesConfig   `toml:"names"`
	Cache  CacheConfig   `toml:"cache"`
	Server ServerConfig  `toml:"server"`
}

// RenderConfig holds output defaults.
type RenderConfig struct {
	Formats []string `toml:"formats" validate:"dive,oneof=svg json dot png pdf"`
	Scale   float64  `toml:"scale" validate:"gt=0,lte=8"`
	Values  bool     `toml:"values"`
}

// NamesConfig points at a directory of display names shared by every run.
// The file is any flow document; only its names table is read.
type NamesConfig struct {
	File      string `toml:"file"`
	CacheSize int    `toml:"cache_size" validate:"gte=0"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend         string   `toml:"backend" validate:"oneof=none file memory redis mongo"`
	TTL             Duration `toml:"ttl"`
	Dir             string   `toml:"dir"`
	Entries         int      `toml:"entries" validate:"gte=0"`
	RedisURL        string   `toml:"redis_url" validate:"required_if=Backend redis"`
	Prefix          string   `toml:"prefix"`
	MongoURI        string   `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string   `toml:"mongo_database" validate:"required_if=Backend mongo"`
	MongoCollection string   `toml:"mongo_collection"`
	Compress        bool     `toml:"compress"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr         string   `toml:"addr" validate:"required"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir, _ := DefaultCacheDir()
	return Config{
		Canvas: layout.DefaultConfig(),
		Theme:  theme.Default(),
		Render: RenderConfig{Formats: []string{"svg"}, Scale: 2},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     Duration{cache.TTLDiagram},
			Dir:     dir,
			Entries: cache.DefaultMemoryEntries,
			Prefix:  appName + ":",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
			MaxBodyBytes: 8 << 20,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the configuration. An empty path means [DefaultPath], which may
// be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := decodeFile(path, &cfg); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return Config{}, err
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.Canvas = cfg.Canvas.WithDefaults()
	cfg.Theme = cfg.Theme.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if err := fverrors.ValidatePath(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fverrors.Wrap(fverrors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// Validate checks every section.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if err := c.Theme.Validate(); err != nil {
		return err
	}
	if c.Cache.Backend == cache.BackendFile && c.Cache.Dir == "" {
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "cache.dir is required for the file backend")
	}
	if c.Cache.Backend == cache.BackendRedis {
		if err := fverrors.ValidateURL(c.Cache.RedisURL, "redis", "rediss"); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "cache.redis_url")
		}
	}
	if c.Cache.Backend == cache.BackendMongo {
		if err := fverrors.ValidateURL(c.Cache.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "cache.mongo_uri")
		}
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "server.addr %q", c.Server.Addr)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return fverrors.New(fverrors.ErrCodeInvalidConfig, "%s", strings.Join(msgs, "; "))
}

// =============================================================================
// Derived settings
// =============================================================================

// CacheConfig converts the cache section for cache.Open.
func (c CacheConfig) CacheConfig() cache.Config {
	return cache.Config{
		Backend:         c.Backend,
		TTL:             c.TTL.Duration,
		Dir:             c.Dir,
		Entries:         c.Entries,
		RedisURL:        c.RedisURL,
		Prefix:          c.Prefix,
		MongoURI:        c.MongoURI,
		MongoDatabase:   c.MongoDatabase,
		MongoCollection: c.MongoCollection,
		Compress:        c.Compress,
	}
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns $XDG_CONFIG_HOME/flowview/config.toml
// (~/.config/flowview/config.toml when unset).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using XDG standard (~/.cache/flowview/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
