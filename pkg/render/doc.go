// Package render turns diagram source into SVG markup and SVG markup into
// PNG images.
//
// # Render stage
//
// A [Renderer] takes a [Request] (diagram source plus theme) and returns the
// serialized svg element produced by the sequence-diagram library. The call
// is synchronous: the request is marshalled into the browser page, rendered
// there, and the markup is marshalled back as a string. Nothing else crosses
// the boundary.
//
//	b := render.NewBrowser(render.BrowserOptions{
//	    Stylesheet: "* { margin: 0; padding: 0; }",
//	    Scripts:    render.DefaultScripts("lib"),
//	})
//	defer b.Close()
//	svg, err := b.Render(ctx, render.Request{Contents: src, Theme: "simple"})
//
// [Cached] wraps any Renderer with a [cache.Cache].
//
// # Rasterization
//
// A [Rasterizer] produces PNG bytes at an exact pixel size:
//
//   - [Browser] screenshots its own page with the viewport set to the
//     requested size, like a print of the live document.
//   - [RSVG] pipes the normalized SVG through rsvg-convert (librsvg).
//
// [cache.Cache]: github.com/seqrender/seqrender/pkg/cache.Cache
package render
