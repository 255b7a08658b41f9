package run

import (
	"context"

	"github.com/asynkron/aipatch/pkg/patch"
)

// Options configures an Engine.
type Options struct {
	// Root is the directory block paths resolve under.
	Root string
	// DryRun makes Execute report outcomes without touching the tree.
	DryRun bool
	// Logger receives progress and failure details. Nil discards them.
	Logger Logger
}

// Engine drives a scan-and-apply pass and accumulates the report.
type Engine struct {
	opts Options
	log  Logger
}

// New returns an Engine for the given options.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = &NoOpLogger{}
	}
	return &Engine{opts: opts, log: opts.Logger}
}

// Scan extracts the patch blocks from text without touching the tree.
func (e *Engine) Scan(ctx context.Context, text string) []patch.Block {
	blocks := patch.Blocks(text)
	e.log.Debug(ctx, "scanned input", Field("bytes", len(text)), Field("blocks", len(blocks)))
	for _, b := range blocks {
		if b.Err != nil {
			e.log.Warn(ctx, "malformed block",
				Field("path", b.Path), Field("line", b.Line), Field("reason", b.Err.Error()))
			continue
		}
		e.log.Debug(ctx, "found block",
			Field("kind", b.Kind), Field("path", b.Path), Field("line", b.Line))
	}
	return blocks
}

// Preview applies blocks in dry-run mode regardless of the configured
// DryRun, producing a report whose results carry diff previews.
func (e *Engine) Preview(ctx context.Context, blocks []patch.Block) (Report, error) {
	return e.apply(ctx, blocks, true)
}

// Execute applies blocks according to the configured options.
func (e *Engine) Execute(ctx context.Context, blocks []patch.Block) (Report, error) {
	return e.apply(ctx, blocks, e.opts.DryRun)
}

// Run is the one-shot form: scan text, then execute every block found.
func (e *Engine) Run(ctx context.Context, text string) (Report, error) {
	return e.Execute(ctx, e.Scan(ctx, text))
}

func (e *Engine) apply(ctx context.Context, blocks []patch.Block, dryRun bool) (Report, error) {
	results, err := patch.Apply(ctx, blocks, patch.Options{Root: e.opts.Root, DryRun: dryRun})
	if err != nil {
		e.log.Error(ctx, "run aborted", err, Field("completed", len(results)))
		return Report{Results: results}, err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			e.log.Warn(ctx, "block failed", Field("path", r.Path), Field("reason", r.Reason))
			continue
		}
		e.log.Debug(ctx, "block applied", Field("path", r.Path), Field("outcome", r.Outcome))
	}
	e.log.Info(ctx, "run finished",
		Field("blocks", len(results)), Field("failed", failed), Field("dry_run", dryRun))

	return Report{Results: results}, nil
}
