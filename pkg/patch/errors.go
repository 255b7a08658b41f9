package patch

import "fmt"

// ErrorKind classifies the failures that can occur while scanning blocks or
// applying them to a target tree.
type ErrorKind string

const (
	// ErrMalformedBlock marks a start marker with no matching end marker.
	ErrMalformedBlock ErrorKind = "MalformedBlock"
	// ErrMalformedHunk marks an unparseable line inside a unified-diff payload.
	ErrMalformedHunk ErrorKind = "MalformedHunk"
	// ErrContextMismatch marks a hunk whose context matches nowhere in the file.
	ErrContextMismatch ErrorKind = "ContextMismatch"
	// ErrTargetNotFound marks a patch block aimed at a file that does not exist.
	ErrTargetNotFound ErrorKind = "TargetNotFound"
	// ErrUnsafePath marks a target path that resolves outside the project root.
	ErrUnsafePath ErrorKind = "UnsafePath"
	// ErrIOFailure marks an underlying read or write error.
	ErrIOFailure ErrorKind = "IOFailure"
)

// Error is a failure scoped to a single block. It satisfies the error
// interface so it can be returned directly from the scanning and application
// helpers, and carries enough structure for callers to build a report line.
type Error struct {
	Kind   ErrorKind
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func errorf(kind ErrorKind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Reason: fmt.Sprintf(format, args...)}
}
