package patch

import (
	"regexp"
	"strconv"
)

// LineTag classifies a line inside a hunk body.
type LineTag int

const (
	// TagContext lines must match the target file and are preserved.
	TagContext LineTag = iota
	// TagRemove lines must match the target file and are dropped.
	TagRemove
	// TagAdd lines are inserted into the target file.
	TagAdd
)

// HunkLine is one payload line with its leading marker stripped.
type HunkLine struct {
	Tag  LineTag
	Text string
}

// Hunk is a unified-diff hunk: a header position plus the tagged body lines
// in payload order.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []HunkLine
}

// oldLines returns the sequence the hunk expects in the current file.
func (h Hunk) oldLines() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Tag == TagContext || l.Tag == TagRemove {
			out = append(out, l.Text)
		}
	}
	return out
}

// newLines returns the sequence that replaces oldLines.
func (h Hunk) newLines() []string {
	var out []string
	for _, l := range h.Lines {
		if l.Tag == TagContext || l.Tag == TagAdd {
			out = append(out, l.Text)
		}
	}
	return out
}

// Counts omitted from a header default to 1, so "@@ -12 +12 @@" addresses a
// single line on each side. Section text after the closing "@@" is accepted
// and ignored.
var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks splits a patch-block payload into its hunks. Git-style file
// headers ("---", "+++", "index ") and other noise before the first hunk
// header are skipped; once inside a hunk, every line must carry a valid
// marker. A payload without a single hunk header is malformed.
func ParseHunks(payload string) ([]Hunk, error) {
	lines := trimTrailingBlank(splitLines(payload))

	var hunks []Hunk
	var cur *Hunk
	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		if m := hunkHeaderRE.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Hunk{
				OldStart: mustAtoi(m[1]),
				OldCount: atoiDefault(m[2], 1),
				NewStart: mustAtoi(m[3]),
				NewCount: atoiDefault(m[4], 1),
			}
			continue
		}
		if cur == nil {
			// File headers and whatever prose precedes the first hunk.
			continue
		}
		if line == `\ No newline at end of file` {
			continue
		}
		switch {
		case line == "":
			// Blank context line whose leading space was stripped in transit.
			cur.Lines = append(cur.Lines, HunkLine{Tag: TagContext})
		case line[0] == ' ':
			cur.Lines = append(cur.Lines, HunkLine{Tag: TagContext, Text: line[1:]})
		case line[0] == '-':
			cur.Lines = append(cur.Lines, HunkLine{Tag: TagRemove, Text: line[1:]})
		case line[0] == '+':
			cur.Lines = append(cur.Lines, HunkLine{Tag: TagAdd, Text: line[1:]})
		default:
			return nil, errorf(ErrMalformedHunk, "", "unexpected line in hunk %d: %q", len(hunks)+1, line)
		}
	}
	flush()

	if len(hunks) == 0 {
		return nil, errorf(ErrMalformedHunk, "", "no hunk headers in payload")
	}
	return hunks, nil
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// trimTrailingBlank drops one trailing empty line, undoing the trailing
// newline joinPayload adds.
func trimTrailingBlank(lines []string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return lines[:n-1]
	}
	return lines
}
