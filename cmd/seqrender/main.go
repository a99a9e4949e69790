package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/seqrender/seqrender/internal/cli"
	apperrors "github.com/seqrender/seqrender/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	cancel()
	os.Exit(code)
}

// run is the process-wide error boundary: every failure, including a panic
// anywhere below it, is reported once on stderr and mapped to an exit code.
func run(ctx context.Context, args []string, stderr io.Writer, opts ...cli.Option) (code int) {
	defer func() {
		if v := recover(); v != nil {
			apperrors.Report(stderr, apperrors.FromPanic(v))
			code = 1
		}
	}()

	c := cli.New(stderr, cli.LogInfo, opts...)
	root := c.RootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130 // Standard shell convention for SIGINT
		}
		apperrors.Report(stderr, err)
		return 1
	}
	return 0
}
