package render

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"

	"github.com/seqrender/seqrender/pkg/errors"
)

// renderScript runs inside the page. It drops containers left by earlier
// renders so diagrams never stack, draws the new diagram into a fresh
// container and returns the serialized svg element.
const renderScript = `(data) => {
  document.querySelectorAll('.diagram').forEach((el) => el.parentNode.removeChild(el));

  const el = document.createElement('div');
  el.className = 'diagram';
  el.id = 'diagram';
  document.body.appendChild(el);

  const diagram = Diagram.parse(data.contents);
  diagram.drawSVG('diagram', { theme: data.theme || undefined });

  const svg = el.querySelector('svg');
  if (!svg) {
    throw new Error('diagram produced no svg element');
  }
  return new XMLSerializer().serializeToString(svg);
}`

// BrowserOptions configures a Browser.
type BrowserOptions struct {
	// Stylesheet is placed in the page head. Empty means DefaultStylesheet.
	Stylesheet string

	// Scripts are injected into the page in order.
	Scripts []string

	// ExecutablePath overrides the chromium binary playwright launches.
	ExecutablePath string

	// Install downloads the playwright driver and chromium if missing.
	Install bool

	// Logger receives console messages from the page. Nil discards them.
	Logger *log.Logger
}

// Browser is a headless chromium page preloaded with the diagram
// libraries. It implements both Renderer and Rasterizer. The page is
// launched on first use and reused for every render; calls are serialized.
type Browser struct {
	opts BrowserOptions

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// NewBrowser returns a Browser that launches lazily.
func NewBrowser(opts BrowserOptions) *Browser {
	return &Browser{opts: opts}
}

// Render draws req in the page and returns the serialized svg element.
func (b *Browser) Render(ctx context.Context, req Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.start(); err != nil {
		return "", err
	}

	out, err := b.page.Evaluate(renderScript, map[string]interface{}{
		"contents": req.Contents,
		"theme":    req.Theme,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRender, err, "render diagram")
	}
	svg, ok := out.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeRender, "render diagram: page returned %T, want string", out)
	}
	return svg, nil
}

// Rasterize resizes the viewport to width x height and screenshots the
// page. The page already holds the most recently rendered diagram, so svg
// is not used; the browser draws its own document.
func (b *Browser) Rasterize(ctx context.Context, _ []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeRasterize, "invalid viewport %dx%d", width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.page == nil {
		return nil, errors.New(errors.ErrCodeRasterize, "nothing rendered yet")
	}

	if err := b.page.SetViewportSize(width, height); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "set viewport %dx%d", width, height)
	}
	png, err := b.page.Screenshot()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "screenshot")
	}
	return png, nil
}

// Close shuts down the page, the browser and the playwright driver.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = multierr.Append(err, b.browser.Close())
	}
	if b.pw != nil {
		err = multierr.Append(err, b.pw.Stop())
	}
	b.pw, b.browser, b.page = nil, nil, nil
	return err
}

// start launches chromium and prepares the page. Callers hold b.mu.
func (b *Browser) start() error {
	if b.page != nil {
		return nil
	}

	for _, script := range b.opts.Scripts {
		if _, err := os.Stat(script); err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "render script %s", script)
		}
	}

	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if b.opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "install playwright")
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "start playwright")
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)}
	if b.opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(b.opts.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return errors.Wrap(errors.ErrCodeRender, err, "launch chromium")
	}

	page, err := b.newPage(browser)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return err
	}

	b.pw, b.browser, b.page = pw, browser, page
	return nil
}

func (b *Browser) newPage(browser playwright.Browser) (playwright.Page, error) {
	page, err := browser.NewPage()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "open page")
	}

	if logger := b.opts.Logger; logger != nil {
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			logger.Print(consoleLine(msg))
		})
	}

	if err := page.SetContent(pageHTML(b.opts.Stylesheet)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "set page content")
	}
	for _, script := range b.opts.Scripts {
		if _, err := page.AddScriptTag(playwright.PageAddScriptTagOptions{Path: playwright.String(script)}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "inject %s", script)
		}
	}
	return page, nil
}

func consoleLine(msg playwright.ConsoleMessage) string {
	loc := msg.Location()
	if loc == nil {
		return "CONSOLE: " + msg.Text()
	}
	return fmt.Sprintf("CONSOLE: %s (from line #%d in %q)", msg.Text(), loc.LineNumber, loc.URL)
}

var (
	_ Renderer   = (*Browser)(nil)
	_ Rasterizer = (*Browser)(nil)
)
