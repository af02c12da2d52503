package config

import (
	"strconv"
	"strings"
	"time"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWVIEW_"

type lookupFunc func(key string) (string, bool)

// envBinding maps one variable onto a config field.
type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func str(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *dst(c) = v; return nil }
}

func float(dst func(c *Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func boolean(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func duration(dst func(c *Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		dst(c).Duration = d
		return nil
	}
}

var envBindings = []envBinding{
	{"CANVAS_WIDTH", float(func(c *Config) *float64 { return &c.Canvas.Width })},
	{"THEME_PRIMARY", str(func(c *Config) *string { return &c.Theme.Primary })},
	{"THEME_SECONDARY", str(func(c *Config) *string { return &c.Theme.Secondary })},
	{"THEME_ACCENT", str(func(c *Config) *string { return &c.Theme.Accent })},
	{"RENDER_FORMATS", func(c *Config, v string) error {
		c.Render.Formats = splitList(v)
		return nil
	}},
	{"RENDER_SCALE", float(func(c *Config) *float64 { return &c.Render.Scale })},
	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"CACHE_TTL", duration(func(c *Config) *Duration { return &c.Cache.TTL })},
	{"CACHE_PREFIX", str(func(c *Config) *string { return &c.Cache.Prefix })},
	{"CACHE_COMPRESS", boolean(func(c *Config) *bool { return &c.Cache.Compress })},
	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"MONGO_URI", str(func(c *Config) *string { return &c.Cache.MongoURI })},
	{"MONGO_DATABASE", str(func(c *Config) *string { return &c.Cache.MongoDatabase })},
	{"NAMES_FILE", str(func(c *Config) *string { return &c.Names.File })},
	{"SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
}

// applyEnv overlays FLOWVIEW_* variables onto cfg. Empty values are ignored.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidConfig, err, "%s%s=%q", EnvPrefix, b.name, v)
		}
	}
	return nil
}

// EnvNames lists every supported environment variable.
func EnvNames() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = EnvPrefix + b.name
	}
	return names
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
