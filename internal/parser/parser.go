package parser

import (
	"regexp"
	"strings"

	"github.com/sokinpui/chatpatch/model"
)

// diffBlockRegex matches a fenced block tagged `diff`, opened at the start of
// a line, whose first non-blank lines are the `--- a/` and `+++ b/` headers.
// The body runs non-greedily up to the first fence at the start of a line. RE2 has no backreferences, so
// the two paths are captured separately and compared in ExtractDiffs.
var diffBlockRegex = regexp.MustCompile(
	"(?m)^[ \\t]*```diff[ \\t]*\\r?\\n" +
		`\s*--- a/(?P<old>[^\r\n]+)\r?\n` +
		`\+\+\+ b/(?P<new>[^\r\n]+)\r?\n` +
		`(?P<body>[\s\S]*?)` +
		"^[ \\t]*```")

// ExtractDiffs finds every diff block in content and returns one record per
// block in order of appearance. Blocks whose `a/` and `b/` paths differ, and
// fences that are never closed, yield nothing.
func ExtractDiffs(content string) []model.DiffRecord {
	var records []model.DiffRecord

	oldIdx := diffBlockRegex.SubexpIndex("old")
	newIdx := diffBlockRegex.SubexpIndex("new")
	bodyIdx := diffBlockRegex.SubexpIndex("body")

	for _, match := range diffBlockRegex.FindAllStringSubmatch(content, -1) {
		oldPath := strings.TrimSpace(match[oldIdx])
		newPath := strings.TrimSpace(match[newIdx])
		if oldPath == "" || oldPath != newPath {
			continue
		}
		records = append(records, model.DiffRecord{
			Filename: newPath,
			Patch:    strings.TrimSpace(match[bodyIdx]),
		})
	}
	return records
}
