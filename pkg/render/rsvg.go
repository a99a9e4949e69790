package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/seqrender/seqrender/pkg/errors"
)

// RSVG rasterizes SVG with the rsvg-convert tool from librsvg.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RSVG struct {
	// Binary is the executable to run. Empty means "rsvg-convert" on PATH.
	Binary string
}

// Rasterize converts svg to a PNG of exactly width x height pixels.
func (r RSVG) Rasterize(ctx context.Context, svg []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeRasterize, "invalid size %dx%d", width, height)
	}
	return r.convert(ctx, svg, "png",
		"-w", strconv.Itoa(width),
		"-h", strconv.Itoa(height),
	)
}

// convert shells out to rsvg-convert for format conversion.
func (r RSVG) convert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "rsvg-convert"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, fmt.Errorf("%v: %s", err, errBuf.String()), "rsvg-convert")
	}
	return out.Bytes(), nil
}

var _ Rasterizer = RSVG{}
