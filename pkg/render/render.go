package render

import (
	"context"
	"path/filepath"
)

// DefaultStylesheet is used when no stylesheet is given.
const DefaultStylesheet = "* { margin: 0; padding: 0; }"

// Request is the input handed to the render context.
type Request struct {
	Contents string `json:"contents"`
	Theme    string `json:"theme"`
}

// Renderer renders diagram source into serialized SVG markup.
type Renderer interface {
	Render(ctx context.Context, req Request) (string, error)
}

// Rasterizer renders SVG into a PNG of exactly width x height pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, width, height int) ([]byte, error)
}

// DefaultScripts returns the scripts the render page needs, in load order:
// the raphael and underscore utility libraries followed by the
// sequence-diagram library.
func DefaultScripts(libDir string) []string {
	return []string{
		filepath.Join(libDir, "raphael-min.js"),
		filepath.Join(libDir, "underscore-min.js"),
		filepath.Join(libDir, "sequence-diagram-min.js"),
	}
}

// pageHTML is the document the diagram library runs in.
func pageHTML(stylesheet string) string {
	if stylesheet == "" {
		stylesheet = DefaultStylesheet
	}
	return "<html>\n<head>\n<style type=\"text/css\">\n" + stylesheet + "\n</style>\n</head>\n<body>\n</body>\n</html>"
}
