// Package config loads tool configuration from a TOML file, merged
// over defaults. The CLI and the server share the same file format.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lanegraph/lanegraph/pkg/cache"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
)

// DefaultFileName is looked up in the working directory when no config
// path is given.
const DefaultFileName = "lanegraph.toml"

// Config is the full tool configuration.
type Config struct {
	Graph  GraphConfig  `toml:"graph"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// GraphConfig controls history reading and layout.
type GraphConfig struct {
	// PaletteSize folds lane color ids. Zero keeps them unbounded.
	PaletteSize int `toml:"palette_size"`

	// MaxCommits bounds the history window. Zero means unbounded.
	MaxCommits int `toml:"max_commits"`

	// IncludeWorkingTree adds the synthetic uncommitted row.
	IncludeWorkingTree bool `toml:"include_working_tree"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis" or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Defaults to the user cache
	// dir.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// StoreConfig configures layout persistence for the server.
type StoreConfig struct {
	// MongoURI enables the MongoDB store when set. Empty keeps the
	// in-memory store.
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			MaxCommits:         1000,
			IncludeWorkingTree: true,
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Store: StoreConfig{
			Database: "lanegraph",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the config file at path over the defaults. An empty path
// tries DefaultFileName; a missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges and enums.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Graph.PaletteSize < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "palette_size must not be negative")
	}
	if c.Graph.MaxCommits < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "max_commits must not be negative")
	}
	return nil
}

// OpenCache builds the configured cache backend.
func (c CacheConfig) OpenCache() (cache.Cache, error) {
	switch c.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		if c.RedisAddr == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "redis backend requires redis_addr")
		}
		return cache.NewRedisCache(c.RedisAddr, c.RedisPassword, c.RedisDB), nil
	case "file":
		dir := c.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "resolve user cache dir")
			}
			dir = filepath.Join(base, "lanegraph")
		}
		return cache.NewFileCache(dir)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
	}
}
