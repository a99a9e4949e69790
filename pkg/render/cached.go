package render

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"

	"github.com/seqrender/seqrender/pkg/cache"
)

// Cached is a Renderer that consults a cache before delegating.
// Cache failures are not fatal: a failed lookup falls through to the inner
// renderer and a failed store is ignored.
type Cached struct {
	Inner Renderer
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	// Stylesheet and Scripts are the page inputs of Inner; they are part
	// of the key because they change the markup.
	Stylesheet string
	Scripts    []string
}

// Render returns the cached markup for req or renders and stores it.
func (c *Cached) Render(ctx context.Context, req Request) (string, error) {
	keyer := c.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.RenderKey(req.Contents, cache.RenderKeyOpts{
		Theme:      req.Theme,
		Stylesheet: c.Stylesheet,
		Scripts:    c.Scripts,
	})

	if data, hit, err := c.Cache.Get(ctx, key); err == nil && hit {
		return string(data), nil
	}

	svg, err := c.Inner.Render(ctx, req)
	if err != nil {
		return "", err
	}
	_ = c.Cache.Set(ctx, key, []byte(svg), c.TTL)
	return svg, nil
}

// Close closes the cache and, if it holds resources, the inner renderer.
func (c *Cached) Close() error {
	err := c.Cache.Close()
	if cl, ok := c.Inner.(io.Closer); ok {
		err = multierr.Append(err, cl.Close())
	}
	return err
}

var _ Renderer = (*Cached)(nil)
