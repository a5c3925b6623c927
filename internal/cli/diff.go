package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/aidanlsb/poetry-migrate/internal/ui"
)

// unifiedDiff returns the changes from before to after, empty when the two
// are identical.
func unifiedDiff(path string, before, after []byte) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (migrated)",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute diff: %w", err)
	}
	return diff, nil
}

func printDiff(w io.Writer, diff string) {
	if diff == "" {
		fmt.Fprintln(w, ui.Hint("No changes."))
		return
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintln(w, ui.DiffLine(strings.TrimRight(line, "\n")))
	}
}
