package patch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}

func TestApplyTextMixedBlocks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "util.go", "package util\n\nfunc Old() {}\n")
	writeFixture(t, dir, "scratch.txt", "temporary\n")

	input := strings.Join([]string{
		"I made three changes.",
		"",
		"## replace-start: cmd/app/main.go",
		"package main",
		"",
		"func main() {}",
		"## replace-end",
		"",
		"## patch-start: util.go",
		"@@ -3 +3 @@",
		"-func Old() {}",
		"+func New() {}",
		"## patch-end",
		"",
		"## delete: scratch.txt",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if got, want := len(results), 3; got != want {
		t.Fatalf("unexpected result count: got %d want %d", got, want)
	}
	for i, want := range []Outcome{OutcomeWritten, OutcomeWritten, OutcomeDeleted} {
		if results[i].Outcome != want {
			t.Fatalf("result %d outcome mismatch: %+v", i, results[i])
		}
	}

	if got, want := readFile(t, filepath.Join(dir, "cmd", "app", "main.go")), "package main\n\nfunc main() {}\n"; got != want {
		t.Fatalf("replace content mismatch: got %q want %q", got, want)
	}
	if got, want := readFile(t, filepath.Join(dir, "util.go")), "package util\n\nfunc New() {}\n"; got != want {
		t.Fatalf("patch content mismatch: got %q want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "scratch.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected scratch.txt gone, stat err: %v", err)
	}
}

func TestApplyTextPatchToleratesStaleOffsets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "list.txt", "one\ntwo\nthree\nfour\nfive\n")

	// The header claims line 1 but the context sits at line 4.
	input := strings.Join([]string{
		"## patch-start: list.txt",
		"@@ -1 +1 @@",
		"-four",
		"+FOUR",
		"## patch-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if results[0].Outcome != OutcomeWritten {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if got, want := readFile(t, filepath.Join(dir, "list.txt")), "one\ntwo\nthree\nFOUR\nfive\n"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestApplyTextContextMismatchLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := "alpha\nbeta\n"
	writeFixture(t, dir, "f.txt", original)

	input := strings.Join([]string{
		"## patch-start: f.txt",
		"@@ -1 +1 @@",
		"-no such line",
		"+whatever",
		"## patch-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if !results[0].Failed() {
		t.Fatalf("expected failure, got %+v", results[0])
	}
	if !strings.HasPrefix(results[0].Reason, string(ErrContextMismatch)) {
		t.Fatalf("reason should start with the error kind, got %q", results[0].Reason)
	}
	if got := readFile(t, filepath.Join(dir, "f.txt")); got != original {
		t.Fatalf("file changed on failure: got %q want %q", got, original)
	}
}

func TestApplyTextFailureDoesNotStopRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := strings.Join([]string{
		"## patch-start: dangling.txt",
		"@@ -1 +1 @@",
		"-a",
		"+b",
		"",
		"## replace-start: ok.txt",
		"fine",
		"## replace-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if got, want := len(results), 2; got != want {
		t.Fatalf("unexpected result count: got %d want %d", got, want)
	}
	if !results[0].Failed() || !strings.HasPrefix(results[0].Reason, string(ErrMalformedBlock)) {
		t.Fatalf("expected malformed first block, got %+v", results[0])
	}
	if results[1].Outcome != OutcomeWritten {
		t.Fatalf("expected second block written, got %+v", results[1])
	}
	if got, want := readFile(t, filepath.Join(dir, "ok.txt")), "fine\n"; got != want {
		t.Fatalf("content mismatch: got %q want %q", got, want)
	}
}

func TestApplyTextRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}

	input := strings.Join([]string{
		"## replace-start: ../outside.txt",
		"gotcha",
		"## replace-end",
		"## delete: /etc/passwd",
		"## replace-start: nested/../../escape.txt",
		"gotcha",
		"## replace-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: root})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if got, want := len(results), 3; got != want {
		t.Fatalf("unexpected result count: got %d want %d", got, want)
	}
	for i, r := range results {
		if !r.Failed() || !strings.HasPrefix(r.Reason, string(ErrUnsafePath)) {
			t.Fatalf("result %d should be UnsafePath, got %+v", i, r)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "outside.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the root, stat err: %v", err)
	}
}

func TestApplyTextDeleteMissingFileIsSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	results, err := ApplyText(context.Background(), "## delete: ghost.txt\n", Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	r := results[0]
	if r.Outcome != OutcomeDeleted || r.Reason != "not found" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if AnyFailed(results) {
		t.Fatalf("deleting a missing file is not a failure")
	}
}

func TestApplyTextPatchMissingTargetFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := strings.Join([]string{
		"## patch-start: absent.txt",
		"@@ -1 +1 @@",
		"-a",
		"+b",
		"## patch-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if !results[0].Failed() || !strings.HasPrefix(results[0].Reason, string(ErrTargetNotFound)) {
		t.Fatalf("expected TargetNotFound, got %+v", results[0])
	}
}

func TestApplyTextDryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "keep.txt", "before\n")
	writeFixture(t, dir, "gone.txt", "to be deleted\n")

	input := strings.Join([]string{
		"## replace-start: keep.txt",
		"after",
		"## replace-end",
		"## patch-start: keep.txt",
		"@@ -1 +1 @@",
		"-before",
		"+after",
		"## patch-end",
		"## delete: gone.txt",
		"## replace-start: new.txt",
		"fresh",
		"## replace-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir, DryRun: true})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if got, want := len(results), 4; got != want {
		t.Fatalf("unexpected result count: got %d want %d", got, want)
	}
	for i, r := range results {
		if r.Outcome != OutcomeSkipped {
			t.Fatalf("result %d should be skipped, got %+v", i, r)
		}
	}
	if results[0].Preview == "" || !strings.Contains(results[0].Preview, "+after") {
		t.Fatalf("replace preview missing diff: %q", results[0].Preview)
	}
	if !strings.Contains(results[2].Preview, "-to be deleted") {
		t.Fatalf("delete preview missing removal: %q", results[2].Preview)
	}

	if got, want := readFile(t, filepath.Join(dir, "keep.txt")), "before\n"; got != want {
		t.Fatalf("dry run modified keep.txt: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.txt")); err != nil {
		t.Fatalf("dry run removed gone.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "new.txt")); !os.IsNotExist(err) {
		t.Fatalf("dry run created new.txt, stat err: %v", err)
	}
}

func TestApplyTextDryRunStillReportsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "f.txt", "alpha\n")

	input := strings.Join([]string{
		"## patch-start: f.txt",
		"@@ -1 +1 @@",
		"-missing",
		"+x",
		"## patch-end",
		"## replace-start: ../evil.txt",
		"x",
		"## replace-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir, DryRun: true})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if !results[0].Failed() || !strings.HasPrefix(results[0].Reason, string(ErrContextMismatch)) {
		t.Fatalf("expected ContextMismatch, got %+v", results[0])
	}
	if !results[1].Failed() || !strings.HasPrefix(results[1].Reason, string(ErrUnsafePath)) {
		t.Fatalf("expected UnsafePath, got %+v", results[1])
	}
}

func TestApplyTextPreservesTrailingNewlineStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "with.txt", "a\nb\n")
	writeFixture(t, dir, "without.txt", "a\nb")

	input := strings.Join([]string{
		"## patch-start: with.txt",
		"@@ -2 +2 @@",
		"-b",
		"+B",
		"## patch-end",
		"## patch-start: without.txt",
		"@@ -2 +2 @@",
		"-b",
		"+B",
		"## patch-end",
	}, "\n")

	results, err := ApplyText(context.Background(), input, Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if AnyFailed(results) {
		t.Fatalf("unexpected failures: %+v", results)
	}
	if got, want := readFile(t, filepath.Join(dir, "with.txt")), "a\nB\n"; got != want {
		t.Fatalf("trailing newline lost: got %q want %q", got, want)
	}
	if got, want := readFile(t, filepath.Join(dir, "without.txt")), "a\nB"; got != want {
		t.Fatalf("trailing newline invented: got %q want %q", got, want)
	}
}

func TestApplyTextDeleteDirectoryFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	results, err := ApplyText(context.Background(), "## delete: sub\n", Options{Root: dir})
	if err != nil {
		t.Fatalf("ApplyText returned error: %v", err)
	}
	if !results[0].Failed() || !strings.HasPrefix(results[0].Reason, string(ErrIOFailure)) {
		t.Fatalf("expected IOFailure, got %+v", results[0])
	}
}

func TestApplyStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ApplyText(ctx, "## delete: a.txt\n## delete: b.txt\n", Options{Root: dir})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results after immediate cancel, got %+v", results)
	}
}

func TestResultStringFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		result Result
		want   string
	}{
		{Result{Path: "a.txt", Outcome: OutcomeWritten}, "a.txt: written"},
		{Result{Path: "b.txt", Outcome: OutcomeSkipped}, "b.txt: skipped (dry-run)"},
		{Result{Path: "c.txt", Outcome: OutcomeDeleted, Reason: "not found"}, "c.txt: deleted (not found)"},
		{Result{Path: "d.txt", Outcome: OutcomeFailed, Reason: "ContextMismatch: hunk 1"}, "d.txt: failed: ContextMismatch: hunk 1"},
	}
	for _, tc := range cases {
		if got := tc.result.String(); got != tc.want {
			t.Fatalf("String mismatch: got %q want %q", got, tc.want)
		}
	}
}

func TestAnyFailed(t *testing.T) {
	t.Parallel()

	ok := []Result{{Outcome: OutcomeWritten}, {Outcome: OutcomeDeleted}}
	if AnyFailed(ok) {
		t.Fatalf("no failures expected")
	}
	mixed := append(ok, Result{Outcome: OutcomeFailed, Reason: "x"})
	if !AnyFailed(mixed) {
		t.Fatalf("expected failure to be detected")
	}
}
