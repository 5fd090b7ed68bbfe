package trace

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Diff produces a GNU unified diff between two runs' step renderings. An
// empty string means the runs are observably identical.
func Diff(a, b *Run) (string, error) {
	left := a.Format()
	right := b.Format()
	if left == right {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(left),
		B:        difflib.SplitLines(right),
		FromFile: a.Name,
		ToFile:   b.Name,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
