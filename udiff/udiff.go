// Package udiff reconstructs unified diffs from the edit encodings agent
// CLIs report: a full unified patch, a single old/new replacement, or a list
// of replacements. All three normalize to hunks under one file header.
package udiff

import (
	"fmt"
	"strings"
)

const hunkMarker = "@@"

// ExtractHunks splits a unified patch into its hunks, discarding the
// `---`/`+++` file header lines. A patch with no hunk markers yields nil,
// signaling the caller to fall back to the raw patch text.
func ExtractHunks(patch string) []string {
	var hunks []string
	var current []string

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, hunkMarker):
			if current != nil {
				hunks = append(hunks, strings.Join(current, "\n"))
			}
			current = []string{line}
		case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ "):
			// file header, not hunk content
		case current != nil:
			current = append(current, line)
		}
	}
	if current != nil {
		hunks = append(hunks, strings.Join(current, "\n"))
	}

	return trimTrailingBlank(hunks)
}

// trimTrailingBlank drops empty trailing lines inside each hunk, which appear
// when the source patch ends with a newline.
func trimTrailingBlank(hunks []string) []string {
	out := make([]string, 0, len(hunks))
	for _, h := range hunks {
		out = append(out, strings.TrimRight(h, "\n"))
	}
	return out
}

// BuildHunk synthesizes one hunk from an old/new text pair. True line
// positions are unknown to the caller, so the range header is always anchored
// at line 1. Empty old or new text contributes zero lines of that sign.
func BuildHunk(oldText, newText string) string {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	var b strings.Builder
	fmt.Fprintf(&b, "%s -1,%d +1,%d %s", hunkMarker, len(oldLines), len(newLines), hunkMarker)
	for _, line := range oldLines {
		b.WriteString("\n-")
		b.WriteString(line)
	}
	for _, line := range newLines {
		b.WriteString("\n+")
		b.WriteString(line)
	}
	return b.String()
}

// Concatenate joins hunks under a single two-line file header for path.
// Zero hunks yield an empty string.
func Concatenate(path string, hunks []string) string {
	if len(hunks) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
	b.WriteString(strings.Join(hunks, "\n"))
	b.WriteString("\n")
	return b.String()
}

// Replacement is one old/new text substitution reported by an edit tool.
type Replacement struct {
	Old string
	New string
}

// FromReplacements builds one unified diff for path, one hunk per
// replacement.
func FromReplacements(path string, reps []Replacement) string {
	hunks := make([]string, 0, len(reps))
	for _, r := range reps {
		hunks = append(hunks, BuildHunk(r.Old, r.New))
	}
	return Concatenate(path, hunks)
}

// Rewrap extracts the hunks of patch and re-emits them under a header for
// path. It returns ok=false when the patch has no extractable hunks.
func Rewrap(path, patch string) (string, bool) {
	hunks := ExtractHunks(patch)
	if len(hunks) == 0 {
		return "", false
	}
	return Concatenate(path, hunks), true
}

// splitLines splits text into lines without a trailing empty element.
// Empty text has zero lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
