// Package cache stores rendered diagram markup between runs.
//
// Rendering goes through a headless browser and is by far the slowest step
// of a conversion, while its output depends only on the diagram source, the
// theme, the stylesheet and the injected scripts. [Keyer.RenderKey] hashes
// exactly those inputs, so a hit can skip the browser entirely.
//
// Three backends are provided:
//   - [NullCache]: never stores anything (the default)
//   - [FileCache]: one JSON file per entry under a directory
//   - [RedisCache]: a shared Redis instance
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// RenderKeyOpts are the render inputs besides the diagram source that
// influence the rendered markup.
type RenderKeyOpts struct {
	Theme      string   `json:"theme"`
	Stylesheet string   `json:"stylesheet"`
	Scripts    []string `json:"scripts"`
}

// Keyer builds cache keys.
type Keyer interface {
	RenderKey(contents string, opts RenderKeyOpts) string
}

// DefaultKeyer produces keys of the form "render:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey hashes the diagram source together with opts.
func (DefaultKeyer) RenderKey(contents string, opts RenderKeyOpts) string {
	return hashKey("render", contents, opts)
}
