// Package diff renders unified diffs of line-oriented text.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Result is a unified diff with its line counts.
type Result struct {
	Content string
	Added   int
	Removed int
}

// Identical returns true when the inputs had no differing lines.
func (r *Result) Identical() bool {
	return r.Added == 0 && r.Removed == 0
}

// Unified produces a unified diff of a and b labelled with fromName and toName.
func Unified(fromName, toName string, a, b []string, context int) (*Result, error) {
	content, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(a),
		B:        withNewlines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Content: content}
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			result.Added++
		case strings.HasPrefix(line, "-"):
			result.Removed++
		}
	}
	return result, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
