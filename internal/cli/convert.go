package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/seqrender/seqrender/pkg/pipeline"
)

// runConvert is the root command: render every file named after the six
// positional settings, stopping at the first failure.
func (c *CLI) runConvert(cmd *cobra.Command, args []string) (err error) {
	opts, files, err := pipeline.ParseArgs(args)
	if err != nil {
		return err
	}

	logger := newProgressLogger(c.Stdout, opts.Verbose)
	ctx := withLogger(cmd.Context(), c.Logger)

	renderer, rasterizer, err := c.backend(c.cfg, opts, logger)
	if err != nil {
		return err
	}
	conv := pipeline.NewConverter(opts, renderer, rasterizer, logger)
	defer func() {
		err = multierr.Append(err, conv.Close())
	}()

	prog := newProgress(loggerFromContext(ctx))
	if err := conv.Run(ctx, files); err != nil {
		return err
	}
	// Stdout carries only the per-file lines; the summary is a diagnostic.
	if opts.Verbose && len(files) > 0 {
		prog.done(fmt.Sprintf("converted %d files", len(files)))
	}
	return nil
}
