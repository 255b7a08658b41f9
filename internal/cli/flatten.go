package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/asynkron/aipatch/internal/config"
	"github.com/asynkron/aipatch/internal/flatten"
	"github.com/asynkron/aipatch/internal/run"
)

// RunFlatten executes the aipatch-flatten command using the provided CLI
// arguments. It returns 0 on success, 1 on failure, 2 on usage errors.
func RunFlatten(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	flagSet := pflag.NewFlagSet("aipatch-flatten", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "Usage: aipatch-flatten [flags] [root]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Dump a project tree into a single markdown document.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fmt.Fprint(stderr, flagSet.FlagUsages())
	}

	root := flagSet.String("root", cfg.Root, "directory to flatten (default: working directory)")
	out := flagSet.StringP("out", "o", "", "output file (default: PROJECT_DUMP.md under the root)")
	skipNames := flagSet.StringSlice("skip-name", nil, "skip files whose basename matches this glob")
	skipExts := flagSet.StringSlice("skip-ext", nil, "skip files with this extension")
	skipDirs := flagSet.StringSlice("skip-dir", nil, "prune directories whose basename matches this glob")
	skipPaths := flagSet.StringSlice("skip-path", nil, "prune this path prefix relative to the root")
	preview := flagSet.BoolP("preview", "p", false, "render the dump to stdout instead of writing it")
	logLevel := flagSet.String("log-level", cfg.LogLevel, "log verbosity (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	switch flagSet.NArg() {
	case 0:
	case 1:
		*root = flagSet.Arg(0)
	default:
		fmt.Fprintf(stderr, "unexpected argument: %s\n", flagSet.Arg(1))
		flagSet.Usage()
		return 2
	}

	logger := run.NewStdLogger(run.ParseLevel(*logLevel), stderr)
	ctx = run.WithTraceID(ctx, run.NewTraceID())

	opts := flatten.Options{
		Root:      *root,
		Out:       *out,
		SkipNames: *skipNames,
		SkipExts:  *skipExts,
		SkipDirs:  *skipDirs,
		SkipPaths: *skipPaths,
		Logger:    logger,
	}

	if *preview {
		doc, _, err := flatten.Render(ctx, opts)
		if err != nil {
			fmt.Fprintf(stderr, "flatten failed: %v\n", err)
			return 1
		}
		rendered, err := flatten.Preview(doc, 100)
		if err != nil {
			fmt.Fprintf(stderr, "failed to render preview: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, rendered)
		return 0
	}

	stats, err := flatten.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "flatten failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s (%d lines)\n", stats.Out, stats.Lines)
	return 0
}
