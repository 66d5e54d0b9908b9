package patcher

import (
	"fmt"
	"strings"
)

// Issue describes a hunk that does not line up with the original content.
// Issues are diagnostics only: Apply never consults them.
type Issue struct {
	Hunk   int // 1-based hunk number within the patch
	Line   int // 1-based original line the hunk is anchored at
	Reason string
	// FoundAt is the 1-based original line where the hunk's target lines
	// were actually found, or 0 when they were not found anywhere.
	FoundAt int
}

func (i Issue) String() string {
	msg := fmt.Sprintf("hunk %d at line %d: %s", i.Hunk, i.Line, i.Reason)
	if i.FoundAt > 0 {
		msg += fmt.Sprintf(" (target lines found at line %d)", i.FoundAt)
	}
	return msg
}

type hunk struct {
	header HunkHeader
	lines  []string
}

// splitHunks groups the body lines of a patch under their headers. Lines
// before the first header and unparseable headers are dropped.
func splitHunks(patch string) []hunk {
	var hunks []hunk
	var current *hunk
	for _, line := range lineBreakRegex.Split(patch, -1) {
		if strings.HasPrefix(line, "@@") {
			h, ok := ParseHunkHeader(line)
			if !ok {
				continue
			}
			hunks = append(hunks, hunk{header: h})
			current = &hunks[len(hunks)-1]
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			current.lines = append(current.lines, line)
		}
	}
	return hunks
}

// targetBlock returns the lines a hunk expects to find in the original:
// its context and deletion lines, in order.
func targetBlock(lines []string) []string {
	var block []string
	for _, line := range lines {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			block = append(block, line[1:])
		}
	}
	return block
}

// normalizeLineForMatching trims whitespace and collapses internal runs of
// whitespace to a single space.
func normalizeLineForMatching(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// matchBlock finds the 1-based line in source where block starts, comparing
// whitespace-normalized lines and skipping blank lines on both sides. It
// returns 0 when there is no match.
func matchBlock(source, block []string) int {
	var normalizedBlock []string
	for _, line := range block {
		if n := normalizeLineForMatching(line); n != "" {
			normalizedBlock = append(normalizedBlock, n)
		}
	}
	if len(normalizedBlock) == 0 {
		return 0
	}

	var filtered []string
	var lineNumbers []int
	for i, line := range source {
		if n := normalizeLineForMatching(line); n != "" {
			filtered = append(filtered, n)
			lineNumbers = append(lineNumbers, i+1)
		}
	}

	for i := 0; i <= len(filtered)-len(normalizedBlock); i++ {
		match := true
		for j := range normalizedBlock {
			if filtered[i+j] != normalizedBlock[j] {
				match = false
				break
			}
		}
		if match {
			return lineNumbers[i]
		}
	}
	return 0
}

// Verify reports hunks whose declared original length disagrees with their
// body, or whose context and deletion lines are not present in original at
// the position the header names.
func Verify(original, patch string) []Issue {
	src := SplitLines(original)
	var issues []Issue

	for i, h := range splitHunks(patch) {
		target := targetBlock(h.lines)
		start := h.header.OrigStart

		if len(target) != h.header.OrigLen {
			issues = append(issues, Issue{
				Hunk:   i + 1,
				Line:   start,
				Reason: fmt.Sprintf("header declares %d original line(s), body has %d", h.header.OrigLen, len(target)),
			})
		}

		if len(target) == 0 {
			continue
		}
		if !matchesAt(src, target, start-1) {
			issues = append(issues, Issue{
				Hunk:    i + 1,
				Line:    start,
				Reason:  "context does not match original",
				FoundAt: matchBlock(src, target),
			})
		}
	}
	return issues
}

func matchesAt(src, block []string, at int) bool {
	if at < 0 || at+len(block) > len(src) {
		return false
	}
	for j, line := range block {
		if src[at+j] != line {
			return false
		}
	}
	return true
}
