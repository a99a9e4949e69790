// Package cli implements the seqrender command-line interface.
//
// The root command keeps the fixed positional interface
//
//	seqrender <outputDir> <png> <svg> <css> <theme> <verbose> [files...]
//
// and renders every file in order, aborting on the first failure. Errors are
// returned, never printed: main owns the single crash boundary.
//
// # Commands
//
//   - serve: HTTP API rendering diagrams from request bodies
//   - cache: Inspect and clear the render cache
//   - completion: Shell completion scripts
//
// # Logging
//
// Progress lines ("saved png: ...") go to stdout through a charmbracelet/log
// logger when the verbose positional is "true" and are discarded otherwise.
// Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/seqrender/seqrender/pkg/buildinfo"
	"github.com/seqrender/seqrender/pkg/cache"
	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/pipeline"
	"github.com/seqrender/seqrender/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "seqrender"

	// Rasterizer names accepted by --rasterizer and the config file.
	rasterizerBrowser = "browser"
	rasterizerRSVG    = "rsvg"

	redisPingTimeout = 3 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// BackendFunc builds the render stage and rasterizer for a batch.
type BackendFunc func(cfg Config, opts pipeline.Options, logger *log.Logger) (render.Renderer, render.Rasterizer, error)

// Option configures a CLI.
type Option func(*CLI)

// WithBackend replaces the browser-backed render stage.
func WithBackend(fn BackendFunc) Option {
	return func(c *CLI) { c.backend = fn }
}

// WithStdout redirects progress lines.
func WithStdout(w io.Writer) Option {
	return func(c *CLI) { c.Stdout = w }
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Stdout io.Writer

	configPath string
	rasterizer string
	libDir     string
	noCache    bool
	debug      bool

	cfg     Config
	backend BackendFunc
}

// New creates a new CLI instance. Diagnostics go to w; progress lines go to
// stdout.
func New(w io.Writer, level log.Level, opts ...Option) *CLI {
	c := &CLI{
		Logger: newLogger(w, level),
		Stdout: os.Stdout,
	}
	c.backend = c.newBackend
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "seqrender <outputDir> <png> <svg> <css> <theme> <verbose> [files...]",
		Short: "Seqrender renders sequence diagrams to PNG and SVG",
		Long: `Seqrender renders text sequence diagrams in a headless browser, turns the
result into a standalone SVG document and writes <name>.png and/or
<name>.svg for every input file.

The png, svg and verbose arguments are enabled only by the literal "true".
An empty css argument selects "` + render.DefaultStylesheet + `".`,
		Version:       buildinfo.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.debug {
				c.SetLogLevel(LogDebug)
				registerLogHooks(c.Logger)
			}
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = c.applyFlags(cfg)
			return c.cfg.Validate()
		},
		RunE: c.runConvert,
	}

	root.SetVersionTemplate(buildinfo.Template())
	// The css argument may look like a flag; stop flag parsing at the first positional.
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/seqrender/config.toml)")
	pf.StringVar(&c.rasterizer, "rasterizer", "", "PNG rasterizer: browser or rsvg")
	pf.StringVar(&c.libDir, "lib-dir", "", "directory holding the diagram scripts")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the render cache")
	pf.BoolVar(&c.debug, "debug", false, "log pipeline and cache events to stderr")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// applyFlags layers command-line flags over the loaded config.
func (c *CLI) applyFlags(cfg Config) Config {
	if c.rasterizer != "" {
		cfg.Rasterizer = c.rasterizer
	}
	if c.libDir != "" {
		cfg.LibDir = c.libDir
		cfg.Scripts = nil
	}
	if c.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg
}

// =============================================================================
// Backend Factory
// =============================================================================

// newBackend wires the browser, the optional render cache and the rasterizer.
func (c *CLI) newBackend(cfg Config, opts pipeline.Options, logger *log.Logger) (render.Renderer, render.Rasterizer, error) {
	scripts := cfg.ScriptPaths()
	browser := render.NewBrowser(render.BrowserOptions{
		Stylesheet:     opts.CSS,
		Scripts:        scripts,
		ExecutablePath: cfg.BrowserPath,
		Install:        cfg.InstallBrowser,
		Logger:         logger,
	})

	var rasterizer render.Rasterizer = browser
	if cfg.Rasterizer == rasterizerRSVG {
		rasterizer = render.RSVG{}
	}

	// The browser rasterizer screenshots whatever the page last drew, so
	// a cache hit would leave it with a stale or empty page.
	if !cfg.Cache.Enabled || (opts.PNG && cfg.Rasterizer != rasterizerRSVG) {
		return browser, rasterizer, nil
	}

	store, err := newCache(cfg.Cache)
	if err != nil {
		_ = browser.Close()
		return nil, nil, err
	}
	c.Logger.Debug("render cache enabled", "ttl", cfg.Cache.TTL)
	return &render.Cached{
		Inner:      browser,
		Cache:      store,
		TTL:        cfg.Cache.ttl(),
		Stylesheet: opts.CSS,
		Scripts:    scripts,
	}, rasterizer, nil
}

func newCache(cfg CacheConfig) (cache.Cache, error) {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, appName+":")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cache redis_url")
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis")
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open cache %s", dir)
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/seqrender/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/seqrender/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
