package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/pipeline"
	"github.com/seqrender/seqrender/pkg/render"
)

type stubRenderer struct {
	svg    string
	closed bool
}

func (s *stubRenderer) Render(context.Context, render.Request) (string, error) {
	return s.svg, nil
}

func (s *stubRenderer) Close() error {
	s.closed = true
	return nil
}

type stubRasterizer struct{}

func (stubRasterizer) Rasterize(context.Context, []byte, int, int) ([]byte, error) {
	return []byte("PNG"), nil
}

// newTestCLI returns a CLI whose backend is stubbed and whose stdout is captured.
func newTestCLI(t *testing.T, r *stubRenderer) (*CLI, *bytes.Buffer, *pipeline.Options) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout bytes.Buffer
	var got pipeline.Options
	c := New(&bytes.Buffer{}, LogInfo)
	c.Stdout = &stdout
	c.backend = func(_ Config, opts pipeline.Options, _ *log.Logger) (render.Renderer, render.Rasterizer, error) {
		got = opts
		return r, stubRasterizer{}, nil
	}
	return c, &stdout, &got
}

func TestRootConvert(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	file := filepath.Join(in, "a.txt")
	if err := os.WriteFile(file, []byte("A->B: hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &stubRenderer{svg: `<svg width="4" height="2"/>`}
	c, stdout, opts := newTestCLI(t, r)

	root := c.RootCommand()
	root.SetArgs([]string{out, "true", "true", "", "simple", "true", file})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if opts.CSS != render.DefaultStylesheet || opts.Theme != "simple" {
		t.Errorf("backend got options %+v", *opts)
	}
	for _, name := range []string{"a.txt.png", "a.txt.svg"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if want := "saved png: a.txt.png\nsaved svg: a.txt.svg\n"; stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
	if !r.closed {
		t.Error("renderer should be closed after the batch")
	}
}

func TestRootConvertQuiet(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	file := filepath.Join(in, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, stdout, _ := newTestCLI(t, &stubRenderer{svg: `<svg/>`})
	root := c.RootCommand()
	root.SetArgs([]string{out, "false", "true", "", "", "false", file})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run wrote to stdout: %q", stdout.String())
	}
}

func TestRootConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"too few positionals", []string{"out", "true"}, errors.ErrCodeInvalidInput},
		{"unknown rasterizer", []string{"--rasterizer", "gimp", "out", "true", "true", "", "", "false"}, errors.ErrCodeInvalidInput},
		{"missing input", []string{"out", "false", "true", "", "", "false", "does-not-exist.txt"}, errors.ErrCodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestCLI(t, &stubRenderer{svg: `<svg/>`})
			root := c.RootCommand()
			root.SetArgs(tt.args)
			if err := root.Execute(); !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRootFlagsStopAtFirstPositional(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	file := filepath.Join(in, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, _, opts := newTestCLI(t, &stubRenderer{svg: `<svg/>`})
	root := c.RootCommand()
	root.SetArgs([]string{out, "false", "true", "--no-margin", "", "false", file})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if opts.CSS != "--no-margin" {
		t.Errorf("css = %q, want the literal argument", opts.CSS)
	}
}
