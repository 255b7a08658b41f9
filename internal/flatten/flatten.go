// Package flatten dumps a project tree into a single markdown document.
//
// The dump opens with a rendered directory tree and then carries one
// collapsible <details> section per file, each holding the file source in a
// fenced code block. The .gitignore of the root is honored, and callers can
// skip additional names, extensions, directories and path prefixes.
package flatten

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/asynkron/aipatch/internal/run"
)

// DefaultOut is the dump file written when no output path is given.
const DefaultOut = "PROJECT_DUMP.md"

// Options configure a dump run.
type Options struct {
	// Root is the directory to flatten. Empty means the working directory.
	Root string
	// Out is the output path. Empty means DefaultOut under Root.
	Out string
	// SkipNames drops files whose basename matches one of these globs.
	SkipNames []string
	// SkipExts drops files by extension, with or without the leading dot.
	SkipExts []string
	// SkipDirs prunes directories whose basename matches one of these globs.
	SkipDirs []string
	// SkipPaths prunes these root-relative path prefixes.
	SkipPaths []string
	// Logger receives progress output. Nil disables logging.
	Logger run.Logger
}

// Stats summarize a finished dump.
type Stats struct {
	Files   int
	Skipped int
	Lines   int
	Out     string
}

// Run flattens the tree and writes the dump to opts.Out.
func Run(ctx context.Context, opts Options) (Stats, error) {
	log := opts.Logger
	if log == nil {
		log = &run.NoOpLogger{}
	}
	doc, stats, err := Render(ctx, opts)
	if err != nil {
		return Stats{}, err
	}
	if err := os.WriteFile(stats.Out, []byte(doc), 0o644); err != nil {
		return Stats{}, fmt.Errorf("write dump: %w", err)
	}
	log.Info(ctx, "dump written",
		run.Field("out", stats.Out),
		run.Field("files", stats.Files),
		run.Field("lines", stats.Lines))
	return stats, nil
}

// Render flattens the tree and returns the dump without writing it.
func Render(ctx context.Context, opts Options) (string, Stats, error) {
	log := opts.Logger
	if log == nil {
		log = &run.NoOpLogger{}
	}
	root, err := resolveRoot(opts.Root)
	if err != nil {
		return "", Stats{}, err
	}
	out := opts.Out
	if out == "" {
		out = filepath.Join(root, DefaultOut)
	}
	doc, stats, err := dump(ctx, root, out, opts, log)
	if err != nil {
		return "", Stats{}, err
	}
	stats.Out = out
	return doc, stats, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve root: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolve root: %s is not a directory", abs)
	}
	return abs, nil
}

func dump(ctx context.Context, root, out string, opts Options, log run.Logger) (string, Stats, error) {
	ig, err := newIgnorer(root, opts)
	if err != nil {
		return "", Stats{}, fmt.Errorf("read .gitignore: %w", err)
	}

	files, skipped, err := collect(ctx, root, out, ig, log)
	if err != nil {
		return "", Stats{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Flattened project tree for `%s`\n\n", filepath.Base(root))
	b.WriteString("```\n")
	b.WriteString(renderTree(root, files))
	b.WriteString("```\n\n")

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", Stats{}, err
		}
		b.WriteString(section(root, rel))
	}

	doc := b.String()
	stats := Stats{
		Files:   len(files),
		Skipped: skipped,
		Lines:   strings.Count(doc, "\n"),
	}
	return doc, stats, nil
}

// collect walks the tree and returns the slash-separated relative paths of
// the files that belong in the dump, in walk order.
func collect(ctx context.Context, root, out string, ig *ignorer, log run.Logger) ([]string, int, error) {
	var files []string
	skipped := 0
	outAbs, _ := filepath.Abs(out)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if path == root {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ig.skipDir(rel) {
				log.Debug(ctx, "pruned directory", run.Field("path", rel))
				return filepath.SkipDir
			}
			return nil
		}
		if abs, aerr := filepath.Abs(path); aerr == nil && abs == outAbs {
			return nil
		}
		if ig.skipFile(rel) {
			skipped++
			log.Debug(ctx, "skipped file", run.Field("path", rel))
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, skipped, nil
}

// section renders one file as a collapsible markdown block.
func section(root, rel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<details>\n<summary><code>%s</code></summary>\n\n", rel)

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	switch {
	case err != nil:
		fmt.Fprintf(&b, "<!-- error reading %s: %v -->\n", rel, err)
	case !utf8.Valid(content):
		fmt.Fprintf(&b, "<!-- skipped binary file %s -->\n", rel)
	default:
		src := strings.TrimRight(string(content), "\n")
		fmt.Fprintf(&b, "```%s\n%s\n```\n", languageFor(rel), src)
	}

	b.WriteString("\n</details>\n\n")
	return b.String()
}

// languageFor picks the fenced-code language tag from the file extension.
func languageFor(rel string) string {
	name := pathBase(rel)
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		switch name {
		case "Makefile", "makefile", "GNUmakefile":
			return "make"
		case "Dockerfile":
			return "dockerfile"
		}
		return ""
	}
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

var languages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "tsx",
	".jsx":   "jsx",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".php":   "php",
	".sh":    "bash",
	".bash":  "bash",
	".zsh":   "bash",
	".fish":  "fish",
	".ps1":   "powershell",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".proto": "protobuf",
	".tf":    "hcl",
	".mod":   "go-module",
	".sum":   "go-sum",
}
