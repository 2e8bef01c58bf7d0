package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/internal/config"
	"github.com/matzehuels/sadm/pkg/cache"
	"github.com/matzehuels/sadm/pkg/pipeline"
	"github.com/matzehuels/sadm/pkg/store"
)

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
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Backends
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	fc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.Config.Cache.KeyPrefix; prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	r := pipeline.NewRunner(fc, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// newCache opens redis when configured, else the file cache. A missing home
// directory disables caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := c.Config.Cache.RedisAddr; addr != "" {
		c.Logger.Debug("using redis cache", "addr", addr)
		return cache.NewRedisCache(ctx, addr)
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the frame archive: MongoDB or SQLite when configured,
// else a directory.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if uri := c.Config.Store.MongoURI; uri != "" {
		c.Logger.Debug("using mongo archive", "database", c.Config.Store.MongoDatabase)
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      uri,
			Database: c.Config.Store.MongoDatabase,
		})
	}
	if path := c.Config.Store.SQLitePath; path != "" {
		c.Logger.Debug("using sqlite archive", "path", path)
		return store.NewSQLiteStore(path)
	}
	dir, err := c.Config.StoreDir()
	if err != nil {
		return nil, fmt.Errorf("archive dir: %w", err)
	}
	return store.NewDirStore(dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// frameFlags are the segmentation flags shared by segment, inspect and serve.
type frameFlags struct {
	frameSize time.Duration
	maxFrames int
	frameType string
	itu       bool
	defaults  bool
}

func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVarP(&f.frameSize, "size", "s", pipeline.DefaultFrameSize, "frame duration")
	cmd.Flags().IntVarP(&f.maxFrames, "frames", "n", 0, "maximum number of frames (0: until programme end)")
	cmd.Flags().StringVar(&f.frameType, "frame-type", pipeline.DefaultFrameType, "frame type: full, header, divided, intermediate, all")
	cmd.Flags().BoolVar(&f.itu, "itu", false, "wrap output in ituADM instead of ebuCoreMain")
	cmd.Flags().BoolVar(&f.defaults, "write-defaults", false, "write attributes that carry default values")
}

// options builds pipeline options. Flags the user did not set take the
// config file values.
func (c *CLI) options(cmd *cobra.Command, f *frameFlags) pipeline.Options {
	opts := pipeline.Options{
		FrameSize: f.frameSize,
		MaxFrames: f.maxFrames,
		FrameType: f.frameType,
		Logger:    c.Logger,
	}
	opts.XML.ITUStructure = f.itu
	opts.XML.WriteDefaultValues = f.defaults
	if !cmd.Flags().Changed("size") {
		opts.FrameSize = c.Config.FrameSize
	}
	if !cmd.Flags().Changed("frames") {
		opts.MaxFrames = c.Config.MaxFrames
	}
	return opts
}

// =============================================================================
// Output
// =============================================================================

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns os.Stdout for an empty path, else creates the file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
