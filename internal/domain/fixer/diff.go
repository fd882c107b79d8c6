package fixer

import (
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// UnifiedDiff renders the unified diff between original and modified
// content and counts changed lines. The diff is attached to every
// attempt, applied or rejected, for audit and display.
func UnifiedDiff(filePath, original, modified string) (string, int, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "a/" + filePath,
		ToFile:   "b/" + filePath,
		Context:  3,
	})
	if err != nil {
		return "", 0, err
	}
	if text == "" {
		return "", 0, nil
	}

	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		// The diff is still usable for display even if stat parsing
		// chokes on it.
		return text, 0, nil
	}
	stat := fd.Stat()
	return text, int(stat.Added + stat.Deleted + stat.Changed), nil
}
