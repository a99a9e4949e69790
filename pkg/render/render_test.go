package render

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seqrender/seqrender/pkg/cache"
	apperrors "github.com/seqrender/seqrender/pkg/errors"
)

type fakeRenderer struct {
	calls int
	out   string
	err   error
	last  Request
}

func (f *fakeRenderer) Render(_ context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

func TestPageHTML(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want string
	}{
		{"default", "", DefaultStylesheet},
		{"custom", "svg { background: white; }", "svg { background: white; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := pageHTML(tt.css)
			if !strings.Contains(html, `<style type="text/css">`+"\n"+tt.want+"\n</style>") {
				t.Errorf("pageHTML(%q) = %s", tt.css, html)
			}
			if !strings.Contains(html, "<body>\n</body>") {
				t.Errorf("page should have an empty body: %s", html)
			}
		})
	}
}

func TestDefaultScripts(t *testing.T) {
	got := DefaultScripts("lib")
	want := []string{
		filepath.Join("lib", "raphael-min.js"),
		filepath.Join("lib", "underscore-min.js"),
		filepath.Join("lib", "sequence-diagram-min.js"),
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("DefaultScripts() = %v, want %v", got, want)
	}
}

func TestRenderScriptRemovesPreviousDiagrams(t *testing.T) {
	if !strings.Contains(renderScript, "querySelectorAll('.diagram')") {
		t.Error("render script must clear earlier diagram containers")
	}
	if !strings.Contains(renderScript, "XMLSerializer") {
		t.Error("render script must return serialized markup")
	}
}

func TestBrowserMissingScript(t *testing.T) {
	b := NewBrowser(BrowserOptions{Scripts: []string{filepath.Join(t.TempDir(), "missing.js")}})
	defer b.Close()

	_, err := b.Render(context.Background(), Request{Contents: "A->B: hi"})
	if !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("Render() error = %v, want %s", err, apperrors.ErrCodeFileNotFound)
	}
}

func TestBrowserRasterizeBeforeRender(t *testing.T) {
	b := NewBrowser(BrowserOptions{})

	if _, err := b.Rasterize(context.Background(), nil, 100, 50); !apperrors.Is(err, apperrors.ErrCodeRasterize) {
		t.Errorf("Rasterize() error = %v, want %s", err, apperrors.ErrCodeRasterize)
	}
	if _, err := b.Rasterize(context.Background(), nil, 0, 50); !apperrors.Is(err, apperrors.ErrCodeRasterize) {
		t.Errorf("Rasterize(0x50) error = %v, want %s", err, apperrors.ErrCodeRasterize)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() on an unstarted browser = %v", err)
	}
}

func TestBrowserCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBrowser(BrowserOptions{})
	if _, err := b.Render(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRSVGInvalidSize(t *testing.T) {
	tests := []struct{ w, h int }{{0, 10}, {10, 0}, {-1, -1}}
	for _, tt := range tests {
		_, err := RSVG{}.Rasterize(context.Background(), []byte("<svg/>"), tt.w, tt.h)
		if !apperrors.Is(err, apperrors.ErrCodeRasterize) {
			t.Errorf("Rasterize(%dx%d) error = %v", tt.w, tt.h, err)
		}
	}
}

func TestRSVGMissingBinary(t *testing.T) {
	r := RSVG{Binary: filepath.Join(t.TempDir(), "no-such-rsvg")}
	_, err := r.Rasterize(context.Background(), []byte("<svg/>"), 10, 10)
	if !apperrors.Is(err, apperrors.ErrCodeRasterize) {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if !strings.Contains(err.Error(), "librsvg") {
		t.Errorf("error should explain how to install librsvg: %v", err)
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	inner := &fakeRenderer{out: "<svg/>"}
	c := &Cached{Inner: inner, Cache: fc, Stylesheet: "*{}", Scripts: []string{"a.js"}}

	req := Request{Contents: "A->B: hi", Theme: "simple"}
	for i := 0; i < 3; i++ {
		got, err := c.Render(ctx, req)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		if got != "<svg/>" {
			t.Errorf("Render() = %q", got)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner renderer called %d times, want 1", inner.calls)
	}

	if _, err := c.Render(ctx, Request{Contents: "A->B: hi", Theme: "hand"}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("a different theme should miss the cache, calls = %d", inner.calls)
	}
	if inner.last.Theme != "hand" {
		t.Errorf("request not forwarded: %+v", inner.last)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	inner := &fakeRenderer{err: boom}
	c := &Cached{Inner: inner, Cache: fc}

	if _, err := c.Render(ctx, Request{Contents: "x"}); !errors.Is(err, boom) {
		t.Fatalf("Render() error = %v, want boom", err)
	}

	inner.err = nil
	inner.out = "<svg/>"
	if got, err := c.Render(ctx, Request{Contents: "x"}); err != nil || got != "<svg/>" {
		t.Errorf("Render() = %q, %v", got, err)
	}
	if inner.calls != 2 {
		t.Errorf("failed renders must not be cached, calls = %d", inner.calls)
	}
}
