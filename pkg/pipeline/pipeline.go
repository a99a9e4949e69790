// Package pipeline provides the render-and-persist pipeline for seqrender.
//
// For every input file the pipeline runs the same fixed sequence:
//
//  1. Read: load the diagram source text
//  2. Render: hand {contents, theme} to a [render.Renderer]
//  3. Normalize: parse the returned markup and apply [normalize.Document]
//  4. Persist: rasterize to PNG and/or serialize to SVG in the output directory
//
// Files are converted strictly one at a time in input order, and the first
// failure aborts the batch.
//
// # Usage
//
//	opts, files, err := pipeline.ParseArgs(os.Args[1:])
//	if err != nil {
//	    return err
//	}
//	conv := pipeline.NewConverter(opts, browser, browser, logger)
//	defer conv.Close()
//	if err := conv.Run(ctx, files); err != nil {
//	    return err
//	}
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/render"
)

// NumPositional is the number of fixed leading arguments before the file list.
const NumPositional = 6

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options holds the fixed positional settings shared by every file in a batch.
type Options struct {
	OutputDir string
	PNG       bool
	SVG       bool
	CSS       string
	Theme     string
	Verbose   bool
}

// Formats returns the enabled output formats in the order they are written.
func (o Options) Formats() []string {
	var formats []string
	if o.PNG {
		formats = append(formats, FormatPNG)
	}
	if o.SVG {
		formats = append(formats, FormatSVG)
	}
	return formats
}

// ParseArgs reads the fixed positional arguments
//
//	<outputDir> <png> <svg> <css> <theme> <verbose> [files...]
//
// and returns the options together with the normalized input paths.
// Only the literal string "true" enables a flag.
func ParseArgs(args []string) (Options, []string, error) {
	if len(args) < NumPositional {
		return Options{}, nil, errors.New(errors.ErrCodeInvalidInput,
			"expected %d positional arguments (outputDir png svg css theme verbose), got %d", NumPositional, len(args))
	}

	opts := Options{
		OutputDir: NormalizePath(args[0]),
		PNG:       isTrue(args[1]),
		SVG:       isTrue(args[2]),
		CSS:       args[3],
		Theme:     args[4],
		Verbose:   isTrue(args[5]),
	}
	if opts.CSS == "" {
		opts.CSS = render.DefaultStylesheet
	}
	if err := opts.Validate(); err != nil {
		return Options{}, nil, err
	}

	files := make([]string, 0, len(args)-NumPositional)
	for _, f := range args[NumPositional:] {
		if err := errors.ValidatePath(f); err != nil {
			return Options{}, nil, err
		}
		files = append(files, NormalizePath(f))
	}
	return opts, files, nil
}

// Validate checks the option values. An empty output directory means the
// working directory.
func (o Options) Validate() error {
	if o.OutputDir != "" {
		if err := errors.ValidatePath(o.OutputDir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "output directory")
		}
	}
	return errors.ValidateTheme(o.Theme)
}

// NormalizePath rewrites both forward and back slashes to the host separator.
func NormalizePath(p string) string {
	sep := string(filepath.Separator)
	return strings.NewReplacer("/", sep, `\`, sep).Replace(p)
}

func isTrue(s string) bool {
	return s == "true"
}
