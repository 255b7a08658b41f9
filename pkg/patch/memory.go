package patch

import (
	"context"
	"maps"
	"path/filepath"
	"strings"
)

// ApplyToMemory applies blocks to an in-memory file map keyed by
// slash-separated relative paths. The input map is copied before mutation;
// the updated snapshot is returned alongside the per-block results.
func ApplyToMemory(ctx context.Context, blocks []Block, files map[string]string, dryRun bool) (map[string]string, []Result, error) {
	snapshot := maps.Clone(files)
	if snapshot == nil {
		snapshot = map[string]string{}
	}
	results, err := run(ctx, blocks, &memoryStore{files: snapshot}, dryRun)
	return snapshot, results, err
}

// ApplyTextToMemory scans text for blocks and applies them to files.
func ApplyTextToMemory(ctx context.Context, text string, files map[string]string, dryRun bool) (map[string]string, []Result, error) {
	return ApplyToMemory(ctx, Blocks(text), files, dryRun)
}

type memoryStore struct {
	files map[string]string
}

// key normalizes a block path into the map key form, applying the same
// containment rule as the filesystem store.
func (s *memoryStore) key(path string) (string, *Error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errorf(ErrUnsafePath, path, "empty target path")
	}
	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if !filepath.IsLocal(cleaned) {
		return "", errorf(ErrUnsafePath, path, "target escapes the project root")
	}
	return filepath.ToSlash(cleaned), nil
}

func (s *memoryStore) read(path string) (string, bool, *Error) {
	key, perr := s.key(path)
	if perr != nil {
		return "", false, perr
	}
	content, ok := s.files[key]
	return content, ok, nil
}

func (s *memoryStore) write(path, content string) *Error {
	key, perr := s.key(path)
	if perr != nil {
		return perr
	}
	s.files[key] = content
	return nil
}

func (s *memoryStore) remove(path string) (bool, *Error) {
	key, perr := s.key(path)
	if perr != nil {
		return false, perr
	}
	_, ok := s.files[key]
	delete(s.files, key)
	return ok, nil
}
