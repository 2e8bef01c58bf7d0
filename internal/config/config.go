// Package config loads sadm settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/sadm/config.toml (~/.config/sadm/
// config.toml when XDG_CONFIG_HOME is unset). Keys absent from the file keep
// the values of [Default]; command-line flags override both.
//
//	frame_size = "1s"
//	max_frames = 0
//
//	[cache]
//	dir = ""
//	redis_addr = ""
//	key_prefix = ""
//	ttl = "24h"
//
//	[store]
//	dir = ""
//	sqlite_path = ""
//	mongo_uri = ""
//	mongo_database = "sadm"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/sadm/pkg/buildinfo"
	"github.com/matzehuels/sadm/pkg/cache"
	errs "github.com/matzehuels/sadm/pkg/errors"
	"github.com/matzehuels/sadm/pkg/pipeline"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config is the decoded config file.
type Config struct {
	FrameSize time.Duration `toml:"frame_size"`
	MaxFrames int           `toml:"max_frames"`

	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Cache selects the frame cache. RedisAddr wins over Dir.
type Cache struct {
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	// KeyPrefix scopes keys when several deployments share one Redis.
	KeyPrefix string        `toml:"key_prefix"`
	TTL       time.Duration `toml:"ttl"`
}

// Store selects the frame archive. MongoURI wins over SQLitePath, which
// wins over Dir.
type Store struct {
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server configures "sadm serve".
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		FrameSize: pipeline.DefaultFrameSize,
		Cache:     Cache{TTL: cache.TTLFrame},
		Store:     Store{MongoDatabase: buildinfo.Name},
		Server:    Server{Addr: ":8080"},
	}
}

// Load reads the config file at path on top of [Default]. An empty path
// means [DefaultPath]; a missing default file is not an error, a missing
// explicit one is. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file not found: %s", path)
			}
			return cfg, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, errs.New(errs.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := errs.ValidateFrameSize(c.FrameSize); err != nil {
		return err
	}
	if c.MaxFrames < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max_frames must not be negative, got %d", c.MaxFrames)
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Store.MongoURI != "" && c.Store.MongoDatabase == "" {
		return errs.New(errs.ErrCodeInvalidInput, "store.mongo_database is required with store.mongo_uri")
	}
	return nil
}

// CacheDir returns the configured cache directory or the XDG default
// (~/.cache/sadm).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StoreDir returns the configured archive directory or the XDG default
// (~/.local/share/sadm/frames).
func (c *Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "frames"), nil
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// xdgDir returns $env/sadm, or ~/fallback/sadm when env is unset.
func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, buildinfo.Name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, buildinfo.Name), nil
}
