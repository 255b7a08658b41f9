package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/pflag"

	"github.com/asynkron/aipatch/internal/config"
	"github.com/asynkron/aipatch/internal/run"
	"github.com/asynkron/aipatch/internal/tui"
	"github.com/asynkron/aipatch/internal/ui"
)

// Run executes the aipatch command using the provided CLI arguments.
// It returns a POSIX-style exit code: 0 when every block applied, 1 when any
// block failed or the run aborted, 2 on usage errors.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
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

	flagSet := pflag.NewFlagSet("aipatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "Usage: aipatch [flags]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Apply AI patch blocks from stdin, a file or the clipboard to a directory tree.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Example: pbpaste | aipatch --dry-run")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fmt.Fprint(stderr, flagSet.FlagUsages())
	}

	root := flagSet.String("root", cfg.Root, "directory patch paths resolve against (default: working directory)")
	input := flagSet.StringP("input", "i", "", "read patch text from this file instead of stdin ('-' forces stdin)")
	fromClipboard := flagSet.BoolP("clipboard", "c", false, "read patch text from the system clipboard")
	dryRun := flagSet.BoolP("dry-run", "n", false, "report what would change without touching the filesystem")
	review := flagSet.BoolP("review", "r", false, "interactively approve blocks before applying them")
	asJSON := flagSet.Bool("json", false, "emit the report as JSON")
	logLevel := flagSet.String("log-level", cfg.LogLevel, "log verbosity (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flagSet.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument: %s\n", flagSet.Arg(0))
		flagSet.Usage()
		return 2
	}
	if *fromClipboard && *input != "" {
		fmt.Fprintln(stderr, "--clipboard and --input are mutually exclusive")
		return 2
	}

	logger := run.NewStdLogger(run.ParseLevel(*logLevel), stderr)
	ctx = run.WithTraceID(ctx, run.NewTraceID())

	text, err := readInput(*input, *fromClipboard)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read patch text: %v\n", err)
		return 1
	}

	engine := run.New(run.Options{Root: *root, DryRun: *dryRun, Logger: logger})
	blocks := engine.Scan(ctx, text)
	if len(blocks) == 0 {
		fmt.Fprintln(stderr, "no patch blocks found in input")
	}

	if *review && len(blocks) > 0 {
		preview, err := engine.Preview(ctx, blocks)
		if err != nil {
			fmt.Fprintf(stderr, "preview failed: %v\n", err)
			return 1
		}
		approved, confirmed, err := tui.Review(ctx, blocks, preview.Results)
		if err != nil {
			fmt.Fprintf(stderr, "review failed: %v\n", err)
			return 1
		}
		if !confirmed {
			fmt.Fprintln(stderr, "review aborted, no changes applied")
			return 1
		}
		if len(approved) == 0 {
			fmt.Fprintln(stderr, "no blocks approved, nothing to apply")
			return 0
		}
		blocks = approved
	}

	report, runErr := engine.Execute(ctx, blocks)
	if runErr != nil {
		fmt.Fprintf(stderr, "run aborted: %v\n", runErr)
	}

	if *asJSON {
		if err := report.WriteJSON(stdout); err != nil {
			fmt.Fprintf(stderr, "failed to write report: %v\n", err)
			return 1
		}
	} else {
		writeConsole(stdout, report, *dryRun)
	}

	if runErr != nil {
		return 1
	}
	return report.ExitCode()
}

// readInput resolves the patch text source. Explicit flags win; otherwise
// stdin is read when it is piped, and a terminal stdin is a usage problem
// surfaced as an error.
func readInput(path string, fromClipboard bool) (string, error) {
	if fromClipboard {
		content, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		return content, nil
	}
	if path != "" && path != "-" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	if path != "-" {
		stat, err := os.Stdin.Stat()
		if err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("stdin is a terminal; pipe patch text or pass --input / --clipboard")
		}
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(content), nil
}

func writeConsole(out io.Writer, report run.Report, dryRun bool) {
	console := ui.NewConsole(out)
	if dryRun {
		console.Header("dry run, no files were changed")
	}
	for _, res := range report.Results {
		console.Result(res)
		if res.Preview != "" {
			console.Raw(res.Preview)
		}
	}
	console.Summary(report.Results)
}
