package patch

import "github.com/pmezard/go-difflib/difflib"

// renderPreview returns a unified diff between the current and prospective
// content of path. An empty string means no textual change.
func renderPreview(path, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
