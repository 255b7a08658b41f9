package patch

import "strings"

// BlockKind identifies the operation a block performs on its target path.
type BlockKind string

const (
	// KindReplace rewrites the target file with the block payload.
	KindReplace BlockKind = "replace"
	// KindPatch applies the payload as unified-diff hunks to the target file.
	KindPatch BlockKind = "patch"
	// KindDelete removes the target file.
	KindDelete BlockKind = "delete"
)

// Marker lines recognized by the scanner. A marker must start its line; the
// argument is everything after the colon with surrounding whitespace trimmed.
const (
	replaceStartMarker = "## replace-start:"
	replaceEndMarker   = "## replace-end"
	patchStartMarker   = "## patch-start:"
	patchEndMarker     = "## patch-end"
	deleteMarker       = "## delete:"
)

// Block is a single operation extracted from the input text. Line is the
// 1-based input line of the opening marker. A block that opened but never
// closed carries the error in Err and an empty payload; the scanner still
// yields it so the caller can report the failure in order.
type Block struct {
	Kind    BlockKind
	Path    string
	Payload string
	Line    int
	Err     *Error
}

// Scanner walks input text and yields patch blocks one at a time, in the
// order they appear. It mirrors the bufio.Scanner shape: call Scan until it
// returns false, reading the current block with Block after each true return.
//
// Text outside marker lines is ignored, so the input can be a full model
// response with prose, headings, and code fences around the blocks.
type Scanner struct {
	lines []string
	pos   int
	block Block
}

// NewScanner returns a Scanner over text. Line endings are normalized to LF
// before scanning, so CRLF input produces the same blocks as LF input.
func NewScanner(text string) *Scanner {
	return &Scanner{lines: splitLines(text)}
}

// Scan advances to the next block. It returns false when the input is
// exhausted.
func (s *Scanner) Scan() bool {
	for s.pos < len(s.lines) {
		line := strings.TrimRight(s.lines[s.pos], " \t")
		if path, ok := markerArg(line, deleteMarker); ok {
			s.block = Block{Kind: KindDelete, Path: path, Line: s.pos + 1}
			s.pos++
			return true
		}
		if path, ok := markerArg(line, replaceStartMarker); ok {
			s.block = s.collect(KindReplace, path, replaceEndMarker)
			return true
		}
		if path, ok := markerArg(line, patchStartMarker); ok {
			s.block = s.collect(KindPatch, path, patchEndMarker)
			return true
		}
		s.pos++
	}
	return false
}

// Block returns the block produced by the most recent successful Scan.
func (s *Scanner) Block() Block {
	return s.block
}

// Blocks scans text to completion and returns every block found.
func Blocks(text string) []Block {
	var blocks []Block
	sc := NewScanner(text)
	for sc.Scan() {
		blocks = append(blocks, sc.Block())
	}
	return blocks
}

// collect gathers body lines from the line after the opening marker until the
// matching end marker. A new start marker before the end marker terminates
// the current block as malformed and is left in place for the next Scan; end
// markers of the other block type are ordinary payload.
func (s *Scanner) collect(kind BlockKind, path, endMarker string) Block {
	start := s.pos
	s.pos++
	var body []string
	for s.pos < len(s.lines) {
		line := strings.TrimRight(s.lines[s.pos], " \t")
		if line == endMarker {
			s.pos++
			return Block{Kind: kind, Path: path, Payload: joinPayload(body), Line: start + 1}
		}
		if isStartMarker(line) {
			return Block{
				Kind: kind,
				Path: path,
				Line: start + 1,
				Err:  errorf(ErrMalformedBlock, path, "missing %s", endMarker),
			}
		}
		body = append(body, s.lines[s.pos])
		s.pos++
	}
	return Block{
		Kind: kind,
		Path: path,
		Line: start + 1,
		Err:  errorf(ErrMalformedBlock, path, "missing %s", endMarker),
	}
}

// markerArg reports whether line is marker followed by a non-empty argument.
func markerArg(line, marker string) (string, bool) {
	if !strings.HasPrefix(line, marker) {
		return "", false
	}
	arg := strings.TrimSpace(line[len(marker):])
	if arg == "" {
		return "", false
	}
	return arg, true
}

func isStartMarker(line string) bool {
	if _, ok := markerArg(line, replaceStartMarker); ok {
		return true
	}
	_, ok := markerArg(line, patchStartMarker)
	return ok
}

// joinPayload assembles body lines into file content. A non-empty body always
// ends with exactly one newline; an empty body is the empty string.
func joinPayload(body []string) string {
	if len(body) == 0 {
		return ""
	}
	return strings.Join(body, "\n") + "\n"
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// splitLines splits normalized text into lines without their terminators.
// The split keeps the empty element after a trailing newline, so joinLines
// reproduces the original content exactly, final newline included.
func splitLines(text string) []string {
	return strings.Split(normalizeNewlines(text), "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
