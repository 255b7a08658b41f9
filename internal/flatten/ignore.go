package flatten

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ignorer decides which directories and files stay out of the dump. It
// combines the root's .gitignore patterns with the skip flags.
//
// Patterns use glob syntax with ** for recursive matching:
//   - * matches any sequence of non-separator characters
//   - ** matches any sequence of characters including separators
//   - ? matches any single non-separator character
//   - [abc] matches one of the characters in brackets
type ignorer struct {
	patterns  []string
	skipNames []string
	skipExts  []string
	skipDirs  []string
	skipPaths []string
}

func newIgnorer(root string, opts Options) (*ignorer, error) {
	patterns, err := loadGitignore(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil, err
	}
	exts := make([]string, 0, len(opts.SkipExts))
	for _, ext := range opts.SkipExts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	paths := make([]string, 0, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p != "" {
			paths = append(paths, p)
		}
	}
	return &ignorer{
		patterns:  patterns,
		skipNames: opts.SkipNames,
		skipExts:  exts,
		skipDirs:  opts.SkipDirs,
		skipPaths: paths,
	}, nil
}

// loadGitignore reads the pattern list, dropping comments and blanks. A
// trailing slash marks a directory pattern and expands to its whole subtree.
func loadGitignore(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "/") {
			patterns = append(patterns, strings.TrimRight(line, "/")+"/**")
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// skipDir reports whether the directory at rel (slash-separated, relative to
// the root) should be pruned from the walk.
func (ig *ignorer) skipDir(rel string) bool {
	name := pathBase(rel)
	for _, p := range ig.patterns {
		if matchGlob(p, rel) || matchGlob(p, rel+"/") {
			return true
		}
	}
	for _, sp := range ig.skipPaths {
		if rel == sp || strings.HasPrefix(rel, sp+"/") {
			return true
		}
	}
	for _, d := range ig.skipDirs {
		if ok, _ := filepath.Match(d, name); ok {
			return true
		}
	}
	return false
}

// skipFile reports whether the file at rel should be left out of the dump.
func (ig *ignorer) skipFile(rel string) bool {
	name := pathBase(rel)
	for _, p := range ig.patterns {
		if matchGlob(p, rel) {
			return true
		}
	}
	for _, sp := range ig.skipPaths {
		if rel == sp || strings.HasPrefix(rel, sp+"/") {
			return true
		}
	}
	for _, ext := range ig.skipExts {
		if matchGlob("*"+ext, rel) || matchGlob("*"+ext, name) {
			return true
		}
	}
	for _, n := range ig.skipNames {
		if ok, _ := filepath.Match(n, name); ok {
			return true
		}
	}
	return false
}

func pathBase(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

// matchGlob matches a slash-separated path against a glob pattern.
func matchGlob(pattern, path string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoublestar(pattern, path)
	}
	matched, _ := filepath.Match(pattern, path)
	if matched {
		return true
	}
	// A bare pattern like "*.log" also applies to the basename.
	matched, _ = filepath.Match(pattern, pathBase(path))
	return matched
}

// matchDoublestar handles ** recursive patterns.
func matchDoublestar(pattern, path string) bool {
	parts := strings.Split(pattern, "**")
	if len(parts) == 1 {
		matched, _ := filepath.Match(pattern, path)
		return matched
	}

	// For "prefix/**/suffix" patterns.
	if len(parts) == 2 {
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		if prefix != "" {
			if !strings.HasPrefix(path, prefix+"/") && path != prefix {
				return false
			}
			path = strings.TrimPrefix(path, prefix+"/")
		}
		if suffix != "" {
			return matchTail(suffix, path)
		}
		return true
	}

	// Multiple **: the non-** parts must appear in order.
	pathIdx := 0
	for i, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		idx := strings.Index(path[pathIdx:], part)
		if idx == -1 {
			return false
		}
		if i == 0 && !strings.HasPrefix(pattern, "**") && idx != 0 {
			return false
		}
		pathIdx += idx + len(part)
	}
	if !strings.HasSuffix(pattern, "**") && pathIdx != len(path) {
		return false
	}
	return true
}

// matchTail checks whether the pattern matches some trailing segment chain
// of the path.
func matchTail(suffix, path string) bool {
	if strings.ContainsAny(suffix, "*?[") {
		parts := strings.Split(path, "/")
		for i := range parts {
			subpath := strings.Join(parts[i:], "/")
			if matched, _ := filepath.Match(suffix, subpath); matched {
				return true
			}
		}
		return false
	}
	return strings.HasSuffix(path, suffix) || strings.Contains(path, suffix+"/") || path == suffix
}
