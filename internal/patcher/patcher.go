package patcher

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRegex matches `@@ -<origStart>[,<origLen>] +<newStart>[,<newLen>] @@`.
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

var lineBreakRegex = regexp.MustCompile(`\r?\n`)

// HunkHeader holds the numbers from a hunk header line. Lengths omitted in
// the header default to 1, as in unified diff.
type HunkHeader struct {
	OrigStart int
	OrigLen   int
	NewStart  int
	NewLen    int
}

// ParseHunkHeader parses a hunk header line. It reports false when the line
// is not a well-formed header.
func ParseHunkHeader(line string) (HunkHeader, bool) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return HunkHeader{}, false
	}
	h := HunkHeader{OrigLen: 1, NewLen: 1}
	var err error
	if h.OrigStart, err = strconv.Atoi(m[1]); err != nil {
		return HunkHeader{}, false
	}
	if h.NewStart, err = strconv.Atoi(m[3]); err != nil {
		return HunkHeader{}, false
	}
	if m[2] != "" {
		if h.OrigLen, err = strconv.Atoi(m[2]); err != nil {
			return HunkHeader{}, false
		}
	}
	if m[4] != "" {
		if h.NewLen, err = strconv.Atoi(m[4]); err != nil {
			return HunkHeader{}, false
		}
	}
	return h, true
}

// SplitLines splits content on LF or CRLF. A single trailing line
// terminator does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := lineBreakRegex.Split(content, -1)
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Apply reconstructs the full new content of a file from its original
// content and a hunk-based patch body.
//
// The patch is walked once. The cursor into the original only moves forward:
// a hunk header copies the untouched original lines preceding it, `-` and
// context lines consume one original line each, and `+` lines are emitted
// without consuming anything. Original lines after the last hunk are copied
// at the end. Header lengths are not checked against the hunk body, and
// malformed lines are ignored instead of reported.
//
// The result is joined with "\n" regardless of the original line endings.
func Apply(original, patch string) string {
	src := SplitLines(original)
	out := make([]string, 0, len(src))
	cursor := 0

	for _, line := range lineBreakRegex.Split(patch, -1) {
		switch {
		case strings.HasPrefix(line, "@@"):
			h, ok := ParseHunkHeader(line)
			if !ok {
				continue
			}
			target := min(h.OrigStart-1, len(src))
			for cursor < target {
				out = append(out, src[cursor])
				cursor++
			}
		case strings.HasPrefix(line, "+"):
			out = append(out, line[1:])
		case strings.HasPrefix(line, "-"):
			cursor++
		case strings.HasPrefix(line, " "):
			if cursor < len(src) {
				out = append(out, src[cursor])
			}
			cursor++
		}
	}

	if cursor < len(src) {
		out = append(out, src[cursor:]...)
	}
	return strings.Join(out, "\n")
}
