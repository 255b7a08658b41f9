package patch

import "fmt"

// applyHunks applies hunks to lines in payload order, threading the
// cumulative line drift from one hunk into the next. The input slice is not
// modified.
func applyHunks(lines []string, hunks []Hunk, path string) ([]string, error) {
	drift := 0
	for i, h := range hunks {
		var err *Error
		lines, drift, err = applyHunk(lines, h, drift)
		if err != nil {
			err.Path = path
			err.Reason = fmt.Sprintf("hunk %d: %s", i+1, err.Reason)
			return nil, err
		}
	}
	return lines, nil
}

// applyHunk locates one hunk and splices its replacement in. The returned
// drift is the running lines-added minus lines-removed total, measured from
// the actual splice rather than the header counts, so a lying header cannot
// poison the anchors of later hunks.
func applyHunk(lines []string, hunk Hunk, drift int) ([]string, int, *Error) {
	before := hunk.oldLines()
	after := hunk.newLines()

	if len(before) == 0 {
		// Pure insertion: nothing to anchor on, so trust the new-side header
		// position, clamped into the file. The cap lands EOF insertions ahead
		// of the empty element a final newline leaves behind.
		hi := len(lines)
		if hi > 0 && lines[hi-1] == "" {
			hi--
		}
		at := clamp(hunk.NewStart-1, 0, hi)
		return splice(lines, at, 0, after), drift + len(after), nil
	}

	at := findAnchor(lines, before, hunk.OldStart-1+drift)
	if at < 0 {
		return nil, drift, errorf(ErrContextMismatch, "",
			"%d line(s) starting with %q match nowhere", len(before), firstLine(before))
	}
	return splice(lines, at, len(before), after), drift + len(after) - len(before), nil
}

// findAnchor returns the index where needle matches lines, preferring the
// position nearest to want and, at equal distance, the earlier one. It
// returns -1 when the needle matches nowhere.
func findAnchor(lines, needle []string, want int) int {
	last := len(lines) - len(needle)
	if last < 0 {
		return -1
	}
	want = clamp(want, 0, last)
	if matchAt(lines, needle, want) {
		return want
	}
	for d := 1; want-d >= 0 || want+d <= last; d++ {
		if i := want - d; i >= 0 && matchAt(lines, needle, i) {
			return i
		}
		if i := want + d; i <= last && matchAt(lines, needle, i) {
			return i
		}
	}
	return -1
}

// matchAt reports whether needle occurs in lines at index at. Comparison is
// exact: no whitespace folding, no case folding.
func matchAt(lines, needle []string, at int) bool {
	for i, want := range needle {
		if lines[at+i] != want {
			return false
		}
	}
	return true
}

// splice returns lines with deleteCount entries at index replaced by
// replacement. The input is never mutated.
func splice(lines []string, index, deleteCount int, replacement []string) []string {
	if deleteCount == 0 && len(replacement) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines)-deleteCount+len(replacement))
	out = append(out, lines[:index]...)
	out = append(out, replacement...)
	out = append(out, lines[index+deleteCount:]...)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
