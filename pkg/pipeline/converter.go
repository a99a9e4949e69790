package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/normalize"
	"github.com/seqrender/seqrender/pkg/observability"
	"github.com/seqrender/seqrender/pkg/render"
	"github.com/seqrender/seqrender/pkg/svgdom"
)

// Converter runs the pipeline for a batch of files.
//
// A Converter is not safe for concurrent use; the render stage it wraps
// typically owns a single page.
type Converter struct {
	Options    Options
	Renderer   render.Renderer
	Rasterizer render.Rasterizer // required only when Options.PNG is set
	Logger     *log.Logger
}

// NewConverter creates a converter. Progress lines are written to logger
// without a level prefix; a nil logger discards them.
func NewConverter(opts Options, r render.Renderer, ras render.Rasterizer, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Converter{
		Options:    opts,
		Renderer:   r,
		Rasterizer: ras,
		Logger:     logger,
	}
}

// Run converts files in order. The first failure aborts the batch; files
// after it are not touched.
func (c *Converter) Run(ctx context.Context, files []string) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.ConvertFile(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// ConvertFile renders one diagram source file and writes the enabled
// outputs as <OutputDir>/<name.ext>.png and <OutputDir>/<name.ext>.svg.
func (c *Converter) ConvertFile(ctx context.Context, path string) (err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, path)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, path, time.Since(start), err)
	}()

	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	doc, err := c.Normalize(ctx, string(src), c.Options.Theme)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeRender
		}
		return errors.Wrap(code, err, "convert %s", path)
	}

	name := filepath.Base(path)
	if c.Options.PNG {
		if err := c.writePNG(ctx, doc, name); err != nil {
			return err
		}
	}
	if c.Options.SVG {
		if err := c.writeSVG(ctx, doc, name); err != nil {
			return err
		}
	}
	return nil
}

// Normalize renders contents with theme and returns the normalized document.
func (c *Converter) Normalize(ctx context.Context, contents, theme string) (*svgdom.Document, error) {
	if c.Renderer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no renderer configured")
	}
	markup, err := c.Renderer.Render(ctx, render.Request{Contents: contents, Theme: theme})
	if err != nil {
		return nil, err
	}

	doc, err := svgdom.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse rendered svg")
	}
	if n := normalize.Document(doc); n > 0 {
		c.Logger.Debug("replaced foreign objects", "count", n)
	}
	return doc, nil
}

func (c *Converter) writePNG(ctx context.Context, doc *svgdom.Document, name string) error {
	if c.Rasterizer == nil {
		return errors.New(errors.ErrCodeInternal, "png output requested but no rasterizer configured")
	}
	root := doc.DocumentElement()
	if root == nil {
		return errors.New(errors.ErrCodeParse, "rendered svg has no root element")
	}

	width, height, err := normalize.Dimensions(root)
	if err != nil {
		return err
	}
	png, err := c.Rasterizer.Rasterize(ctx, []byte(svgdom.Serialize(doc)), width, height)
	if err != nil {
		return err
	}
	return c.write(ctx, FormatPNG, name, png)
}

func (c *Converter) writeSVG(ctx context.Context, doc *svgdom.Document, name string) error {
	return c.write(ctx, FormatSVG, name, []byte(svgdom.Serialize(doc)))
}

func (c *Converter) write(ctx context.Context, format, name string, data []byte) error {
	out := name + "." + format
	path := filepath.Join(c.Options.OutputDir, out)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	observability.Pipeline().OnArtifactWritten(ctx, format, path, len(data))
	c.Logger.Printf("saved %s: %s", format, out)
	return nil
}

// Close releases the renderer and rasterizer if they hold resources.
// A value serving as both is closed once.
func (c *Converter) Close() error {
	var err error
	var closed io.Closer
	if cl, ok := c.Renderer.(io.Closer); ok {
		err = multierr.Append(err, cl.Close())
		closed = cl
	}
	if cl, ok := c.Rasterizer.(io.Closer); ok && cl != closed {
		err = multierr.Append(err, cl.Close())
	}
	return err
}
