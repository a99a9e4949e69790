package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/render"
)

// envLibDir overrides the script directory from the environment.
const envLibDir = "SEQRENDER_LIB_DIR"

// Config is the optional config.toml.
type Config struct {
	// LibDir holds raphael-min.js, underscore-min.js and
	// sequence-diagram-min.js. Defaults to "lib" next to the executable.
	LibDir string `toml:"lib_dir"`

	// Scripts replaces the default script list entirely when set.
	Scripts []string `toml:"scripts"`

	Rasterizer     string `toml:"rasterizer"`
	BrowserPath    string `toml:"browser_path"`
	InstallBrowser bool   `toml:"install_browser"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig configures the render cache.
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	TTL      string `toml:"ttl"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr  string `toml:"addr"`
	Theme string `toml:"theme"`
	CSS   string `toml:"css"`
}

const (
	defaultCacheTTL  = 7 * 24 * time.Hour
	defaultServeAddr = "127.0.0.1:8080"
)

func defaultConfig() Config {
	return Config{
		LibDir:     defaultLibDir(),
		Rasterizer: rasterizerBrowser,
		Serve:      ServeConfig{Addr: defaultServeAddr},
	}
}

func defaultLibDir() string {
	if dir := os.Getenv(envLibDir); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return "lib"
	}
	return filepath.Join(filepath.Dir(exe), "lib")
}

// loadConfig reads path, or the default location when path is empty.
// A missing default file is not an error; a missing explicit one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	// The environment wins over the file for the script directory.
	if dir := os.Getenv(envLibDir); dir != "" {
		cfg.LibDir = dir
	}
	return cfg, nil
}

// Validate checks enumerated values and durations.
func (c Config) Validate() error {
	switch c.Rasterizer {
	case rasterizerBrowser, rasterizerRSVG:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown rasterizer %q (want %s or %s)", c.Rasterizer, rasterizerBrowser, rasterizerRSVG)
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache ttl")
		}
	}
	return errors.ValidateTheme(c.Serve.Theme)
}

// ScriptPaths returns the scripts to inject, in load order.
func (c Config) ScriptPaths() []string {
	if len(c.Scripts) > 0 {
		return c.Scripts
	}
	return render.DefaultScripts(c.LibDir)
}

func (c CacheConfig) ttl() time.Duration {
	if d, err := time.ParseDuration(c.TTL); err == nil {
		return d
	}
	return defaultCacheTTL
}
