package patch

import (
	"context"
	"errors"
	"fmt"
)

// Options configures a run against the filesystem.
type Options struct {
	// Root is the directory all target paths resolve under. Empty means the
	// current working directory.
	Root string
	// DryRun computes and reports every outcome without touching the tree.
	DryRun bool
}

// Outcome is the terminal state of a single block.
type Outcome string

const (
	// OutcomeWritten means the target file now holds the new content.
	OutcomeWritten Outcome = "written"
	// OutcomeDeleted means the target file is gone, or never existed.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeSkipped means a dry run stopped short of the mutation.
	OutcomeSkipped Outcome = "skipped (dry-run)"
	// OutcomeFailed means the block could not be applied; Reason says why.
	OutcomeFailed Outcome = "failed"
)

// Result records what happened to one block. Preview carries a unified diff
// of the prospective change on dry runs.
type Result struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	Preview string  `json:"preview,omitempty"`
}

// Failed reports whether the block failed.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// String renders the report line for the result.
func (r Result) String() string {
	switch {
	case r.Outcome == OutcomeFailed:
		return fmt.Sprintf("%s: failed: %s", r.Path, r.Reason)
	case r.Reason != "":
		return fmt.Sprintf("%s: %s (%s)", r.Path, r.Outcome, r.Reason)
	default:
		return fmt.Sprintf("%s: %s", r.Path, r.Outcome)
	}
}

// AnyFailed reports whether any result in the run failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}

// store abstracts the target tree so the same block logic can run against
// the real filesystem or an in-memory snapshot.
type store interface {
	// read returns the target content and whether the target exists. A false
	// second return with a nil error means a missing file, not a failure.
	read(path string) (string, bool, *Error)
	write(path, content string) *Error
	// remove deletes the target, reporting whether it existed.
	remove(path string) (bool, *Error)
}

// run applies blocks to st one at a time. A failed block never stops the
// run; only context cancellation does, returning the results collected so
// far alongside the context error.
func run(ctx context.Context, blocks []Block, st store, dryRun bool) ([]Result, error) {
	results := make([]Result, 0, len(blocks))
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, applyBlock(b, st, dryRun))
	}
	return results, nil
}

func applyBlock(b Block, st store, dryRun bool) Result {
	if b.Err != nil {
		return failed(b, b.Err)
	}
	switch b.Kind {
	case KindReplace:
		return applyReplace(b, st, dryRun)
	case KindPatch:
		return applyPatch(b, st, dryRun)
	case KindDelete:
		return applyDelete(b, st, dryRun)
	default:
		return failed(b, errorf(ErrMalformedBlock, b.Path, "unsupported block kind %q", b.Kind))
	}
}

func applyReplace(b Block, st store, dryRun bool) Result {
	if dryRun {
		old, _, err := st.read(b.Path)
		if err != nil {
			return failed(b, err)
		}
		return Result{
			Path:    b.Path,
			Outcome: OutcomeSkipped,
			Preview: renderPreview(b.Path, old, b.Payload),
		}
	}
	if err := st.write(b.Path, b.Payload); err != nil {
		return failed(b, err)
	}
	return Result{Path: b.Path, Outcome: OutcomeWritten}
}

func applyPatch(b Block, st store, dryRun bool) Result {
	content, exists, rerr := st.read(b.Path)
	if rerr != nil {
		return failed(b, rerr)
	}
	if !exists {
		return failed(b, errorf(ErrTargetNotFound, b.Path, "no such file"))
	}

	hunks, err := ParseHunks(b.Payload)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Path = b.Path
		}
		return failed(b, err)
	}

	patched, err := applyHunks(splitLines(content), hunks, b.Path)
	if err != nil {
		return failed(b, err)
	}
	next := joinLines(patched)

	if dryRun {
		return Result{
			Path:    b.Path,
			Outcome: OutcomeSkipped,
			Preview: renderPreview(b.Path, content, next),
		}
	}
	if werr := st.write(b.Path, next); werr != nil {
		return failed(b, werr)
	}
	return Result{Path: b.Path, Outcome: OutcomeWritten}
}

func applyDelete(b Block, st store, dryRun bool) Result {
	if dryRun {
		old, exists, err := st.read(b.Path)
		if err != nil {
			return failed(b, err)
		}
		res := Result{Path: b.Path, Outcome: OutcomeSkipped}
		if exists {
			res.Preview = renderPreview(b.Path, old, "")
		} else {
			res.Reason = "not found"
		}
		return res
	}
	existed, err := st.remove(b.Path)
	if err != nil {
		return failed(b, err)
	}
	res := Result{Path: b.Path, Outcome: OutcomeDeleted}
	if !existed {
		res.Reason = "not found"
	}
	return res
}

func failed(b Block, err error) Result {
	return Result{Path: b.Path, Outcome: OutcomeFailed, Reason: err.Error()}
}
