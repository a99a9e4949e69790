package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/seqrender/seqrender/internal/cli"
	"github.com/seqrender/seqrender/pkg/pipeline"
	"github.com/seqrender/seqrender/pkg/render"
)

// fakeBackend renders each source to a fixed document and rasterizes to
// "PNG". Sources without an entry fail to render.
type fakeBackend struct {
	outputs map[string]string
	calls   int
}

func (f *fakeBackend) Render(_ context.Context, req render.Request) (string, error) {
	f.calls++
	svg, ok := f.outputs[req.Contents]
	if !ok {
		return "", fmt.Errorf("no diagram for %q", req.Contents)
	}
	return svg, nil
}

func (f *fakeBackend) Rasterize(context.Context, []byte, int, int) ([]byte, error) {
	return []byte("PNG"), nil
}

func (f *fakeBackend) backend(cli.Config, pipeline.Options, *log.Logger) (render.Renderer, render.Rasterizer, error) {
	return f, f, nil
}

func TestRunTooFewArguments(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"out", "true"}, &stderr)
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	out := stderr.String()
	for _, want := range []string{"ERROR:", "INVALID_INPUT", "TRACE:", " -> "} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
}

func TestRunVersion(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"--version"}, &stderr); code != 0 {
		t.Errorf("run(--version) = %d, want 0: %s", code, stderr.String())
	}
}

func TestRunBatch(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	in, out := t.TempDir(), t.TempDir()
	var files []string
	for _, name := range []string{"1.txt", "2.txt", "3.txt"} {
		path := filepath.Join(in, name)
		if err := os.WriteFile(path, []byte(strings.TrimSuffix(name, ".txt")), 0o644); err != nil {
			t.Fatal(err)
		}
		files = append(files, path)
	}
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(out, name))
		return err == nil
	}

	t.Run("second file fails", func(t *testing.T) {
		fb := &fakeBackend{outputs: map[string]string{
			"1": `<svg width="2" height="2"/>`,
			"2": `<svg width="2" height="2"><g>`,
			"3": `<svg width="2" height="2"/>`,
		}}
		var stdout, stderr bytes.Buffer
		args := append([]string{out, "true", "true", "", "", "true"}, files...)

		code := run(context.Background(), args, &stderr, cli.WithBackend(fb.backend), cli.WithStdout(&stdout))
		if code != 1 {
			t.Fatalf("run() = %d, want 1", code)
		}
		report := stderr.String()
		for _, want := range []string{"ERROR:", "PARSE", "2.txt", "TRACE:", " -> "} {
			if !strings.Contains(report, want) {
				t.Errorf("stderr missing %q:\n%s", want, report)
			}
		}
		if want := "saved png: 1.txt.png\nsaved svg: 1.txt.svg\n"; stdout.String() != want {
			t.Errorf("stdout = %q, want %q", stdout.String(), want)
		}
		if !exists("1.txt.png") || !exists("1.txt.svg") {
			t.Error("outputs for the first file should be written")
		}
		for _, name := range []string{"2.txt.png", "2.txt.svg", "3.txt.png", "3.txt.svg"} {
			if exists(name) {
				t.Errorf("%s written after the batch aborted", name)
			}
		}
		if fb.calls != 2 {
			t.Errorf("render calls = %d, want 2", fb.calls)
		}
	})

	t.Run("render failure", func(t *testing.T) {
		fb := &fakeBackend{outputs: map[string]string{}}
		var stderr bytes.Buffer
		args := append([]string{out, "false", "true", "", "", "false"}, files...)

		if code := run(context.Background(), args, &stderr, cli.WithBackend(fb.backend), cli.WithStdout(&bytes.Buffer{})); code != 1 {
			t.Fatalf("run() = %d, want 1", code)
		}
		if !strings.Contains(stderr.String(), "RENDER") {
			t.Errorf("stderr should name the RENDER code:\n%s", stderr.String())
		}
		if fb.calls != 1 {
			t.Errorf("render calls = %d, want 1", fb.calls)
		}
	})
}
