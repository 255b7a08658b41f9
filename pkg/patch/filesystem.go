package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Apply runs blocks against the filesystem under opts.Root. Every block
// produces exactly one Result, in input order; the returned error is non-nil
// only when ctx is done, with the results collected up to that point.
func Apply(ctx context.Context, blocks []Block, opts Options) ([]Result, error) {
	st, err := newFilesystemStore(opts.Root)
	if err != nil {
		return nil, err
	}
	return run(ctx, blocks, st, opts.DryRun)
}

// ApplyText scans text for blocks and applies them in order. It is the
// one-call form of NewScanner plus Apply.
func ApplyText(ctx context.Context, text string, opts Options) ([]Result, error) {
	return Apply(ctx, Blocks(text), opts)
}

// filesystemStore maps block paths onto files under a root directory.
type filesystemStore struct {
	root string
}

func newFilesystemStore(root string) (*filesystemStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		root = wd
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &filesystemStore{root: root}, nil
}

// resolve maps a block path to an absolute path under the root. Absolute
// paths and paths that climb out of the root are rejected before any
// filesystem access happens.
func (s *filesystemStore) resolve(path string) (string, *Error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errorf(ErrUnsafePath, path, "empty target path")
	}
	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if !filepath.IsLocal(cleaned) {
		return "", errorf(ErrUnsafePath, path, "target escapes the project root")
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *filesystemStore) read(path string) (string, bool, *Error) {
	abs, perr := s.resolve(path)
	if perr != nil {
		return "", false, perr
	}
	content, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errorf(ErrIOFailure, path, "read: %v", err)
	}
	return string(content), true, nil
}

func (s *filesystemStore) write(path, content string) *Error {
	abs, perr := s.resolve(path)
	if perr != nil {
		return perr
	}
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		if info.IsDir() {
			return errorf(ErrIOFailure, path, "target is a directory")
		}
		if mode := info.Mode() & fs.ModePerm; mode != 0 {
			perm = mode
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errorf(ErrIOFailure, path, "create parent directory: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), perm); err != nil {
		return errorf(ErrIOFailure, path, "write: %v", err)
	}
	return nil
}

func (s *filesystemStore) remove(path string) (bool, *Error) {
	abs, perr := s.resolve(path)
	if perr != nil {
		return false, perr
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errorf(ErrIOFailure, path, "stat: %v", err)
	}
	if info.IsDir() {
		return false, errorf(ErrIOFailure, path, "target is a directory")
	}
	if err := os.Remove(abs); err != nil {
		return false, errorf(ErrIOFailure, path, "remove: %v", err)
	}
	return true, nil
}
