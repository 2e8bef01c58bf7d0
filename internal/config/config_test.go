package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/sadm/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.FrameSize != time.Second || c.Cache.TTL != 24*time.Hour || c.Server.Addr != ":8080" || c.Store.MongoDatabase != "sadm" {
		t.Errorf("Default() = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
frame_size = "500ms"
max_frames = 12

[cache]
redis_addr = "localhost:6379"
ttl = "1h"

[store]
sqlite_path = "/tmp/frames.db"
mongo_uri = "mongodb://localhost:27017"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.FrameSize != 500*time.Millisecond || c.MaxFrames != 12 {
		t.Errorf("top level = %+v", c)
	}
	if c.Cache.RedisAddr != "localhost:6379" || c.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", c.Cache)
	}
	if c.Store.MongoURI == "" || c.Store.MongoDatabase != "sadm" || c.Store.SQLitePath != "/tmp/frames.db" {
		t.Errorf("store = %+v", c.Store)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want default", c.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errs.Code
		msg  string
	}{
		{"zero frame size", `frame_size = "0s"`, errs.ErrCodeInvalidInput, "frame size"},
		{"negative max frames", `max_frames = -2`, errs.ErrCodeInvalidInput, "max_frames"},
		{"negative ttl", "[cache]\nttl = \"-1h\"", errs.ErrCodeInvalidInput, "cache.ttl"},
		{"mongo without database", "[store]\nmongo_uri = \"mongodb://x\"\nmongo_database = \"\"", errs.ErrCodeInvalidInput, "mongo_database"},
		{"unknown key", "frame_sise = \"1s\"\n[cache]\ncolour = 1", errs.ErrCodeInvalidInput, "cache.colour, frame_sise"},
		{"syntax", `frame_size = `, errs.ErrCodeInvalidFormat, "parse"},
		{"bad duration", `frame_size = "soon"`, errs.ErrCodeInvalidFormat, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %v, want mention of %q", err, tt.msg)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("missing default file: %v", err)
	}
	if c.FrameSize != time.Second {
		t.Errorf("FrameSize = %v", c.FrameSize)
	}

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing explicit file: err = %v", err)
	}
}

func TestDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))

	c := Default()
	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", DefaultPath, filepath.Join(base, "config", "sadm", FileName)},
		{"cache", c.CacheDir, filepath.Join(base, "cache", "sadm")},
		{"store", c.StoreDir, filepath.Join(base, "data", "sadm", "frames")},
	}
	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil || got != tt.want {
			t.Errorf("%s = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}

	c.Cache.Dir = "/tmp/c"
	c.Store.Dir = "/tmp/s"
	if d, _ := c.CacheDir(); d != "/tmp/c" {
		t.Errorf("explicit cache dir = %q", d)
	}
	if d, _ := c.StoreDir(); d != "/tmp/s" {
		t.Errorf("explicit store dir = %q", d)
	}
}
