// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"catrapid-core/filter"

	"catrapid/internal/cli"
	"catrapid/internal/logging"
	"catrapid/internal/outdir"
	"catrapid/internal/writers"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2 // bad flags, config, allow-list, or output directory conflict
	ExitRuntime  = 3 // malformed input, I/O, merge, or publish failure
	ExitCanceled = 130
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	if len(argv) == 0 {
		if err := cli.Usage(outw); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return ExitRuntime
		}
		return flush(outw, stderr, ExitOK)
	}

	opts, err := cli.Parse(argv, outw)
	if errors.Is(err, cli.ErrHelp) {
		return flush(outw, stderr, ExitOK)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\nRun 'catrapid --help' for usage.\n", err)
		return ExitUsage
	}

	runID := logging.NewRunID()
	log, _, err := logging.New(logging.Options{
		Level:  opts.Config.Logging.Level,
		Format: opts.Config.Logging.Format,
		Quiet:  opts.Quiet,
	}, stderr, runID)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	defer func() { _ = log.Sync() }()

	rep, err := execute(parent, opts, log, runID)
	if err != nil {
		code := exitCode(parent, err)
		if code == ExitCanceled {
			log.Warn("canceled; partial outputs discarded", zap.Error(err))
		} else {
			log.Error("run failed", zap.Error(err))
		}
		return code
	}

	if !opts.Quiet {
		_, _ = fmt.Fprintln(outw, summaryLine(rep))
	}
	return flush(outw, stderr, ExitOK)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func flush(outw *bufio.Writer, stderr io.Writer, code int) int {
	if err := outw.Flush(); writers.IsBrokenPipe(err) {
		return code
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitRuntime
	}
	return code
}

// setupError marks failures detected before any input is read.
type setupError struct{ err error }

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func exitCode(ctx context.Context, err error) int {
	var (
		se *setupError
		ce *outdir.ConflictError
		ue *cli.UsageError
	)
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return ExitCanceled
	case errors.As(err, &se), errors.As(err, &ce), errors.As(err, &ue),
		errors.Is(err, filter.ErrMalformedFilterLine):
		return ExitUsage
	default:
		return ExitRuntime
	}
}
