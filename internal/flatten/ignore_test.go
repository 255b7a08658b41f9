package flatten

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadGitignoreStripsCommentsAndBlanks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n\nnode_modules/\n*.tmp\n  \n"), 0o644))

	patterns, err := loadGitignore(path)
	require.NoError(t, err)
	require.Equal(t, []string{"node_modules/**", "*.tmp"}, patterns)
}

func TestLoadGitignoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	patterns, err := loadGitignore(filepath.Join(t.TempDir(), ".gitignore"))
	require.NoError(t, err)
	require.Empty(t, patterns)
}

func TestSkipDirRules(t *testing.T) {
	t.Parallel()

	ig := &ignorer{
		patterns:  []string{"dist/**"},
		skipDirs:  []string{"node_*"},
		skipPaths: []string{"gen/out"},
	}

	require.True(t, ig.skipDir("dist"))
	require.True(t, ig.skipDir("node_modules"))
	require.True(t, ig.skipDir("sub/node_modules"))
	require.True(t, ig.skipDir("gen/out"))
	require.True(t, ig.skipDir("gen/out/deep"))
	require.False(t, ig.skipDir("src"))
	require.False(t, ig.skipDir("gen"))
}

func TestSkipFileRules(t *testing.T) {
	t.Parallel()

	ig := &ignorer{
		patterns:  []string{"*.tmp", "build/**"},
		skipNames: []string{"*.secret"},
		skipExts:  []string{".log"},
		skipPaths: []string{"third_party"},
	}

	require.True(t, ig.skipFile("scratch.tmp"))
	require.True(t, ig.skipFile("nested/deep/scratch.tmp"))
	require.True(t, ig.skipFile("build/out.js"))
	require.True(t, ig.skipFile("api.secret"))
	require.True(t, ig.skipFile("server/app.log"))
	require.True(t, ig.skipFile("third_party/lib.go"))
	require.False(t, ig.skipFile("main.go"))
	require.False(t, ig.skipFile("third_party_notes.md"))
}

func TestSkipExtNormalization(t *testing.T) {
	t.Parallel()

	opts := Options{SkipExts: []string{"log", ".bak", "min.*"}}
	ig, err := newIgnorer(t.TempDir(), opts)
	require.NoError(t, err)

	require.True(t, ig.skipFile("app.log"))
	require.True(t, ig.skipFile("old.bak"))
	require.True(t, ig.skipFile("bundle.min.js"))
	require.False(t, ig.skipFile("catalog.go"))
}

func TestMatchGlob(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "cmd/main.go", true},
		{"cmd/*.go", "cmd/main.go", true},
		{"cmd/*.go", "cmd/sub/main.go", false},
		{"internal/**", "internal/a/b.go", true},
		{"internal/**", "internal", true},
		{"internal/**", "external/a.go", false},
		{"**/*.test", "a/b/unit.test", true},
		{"docs/**/api.md", "docs/v1/api.md", true},
		{"docs/**/api.md", "docs/api.md", true},
		{"docs/**/api.md", "docs/v1/guide.md", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, matchGlob(tc.pattern, tc.path), "matchGlob(%q, %q)", tc.pattern, tc.path)
	}
}
