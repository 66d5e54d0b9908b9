package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is one fenced code block of a markdown document.
type CodeBlock struct {
	// Hint is the paragraph right before the block, trimmed. Replies often
	// name the file there.
	Hint string
	// Lang is the info string's first word, e.g. "go" or "diff".
	Lang    string
	Content string
}

func segmentsText(segs *text.Segments, source []byte) string {
	var sb strings.Builder
	for i := range segs.Len() {
		seg := segs.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

// CodeBlocks lists the fenced code blocks of source in document order.
// Unclosed fences run to the end of the document, as in CommonMark.
func CodeBlocks(source []byte) ([]CodeBlock, error) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []CodeBlock
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}

		cb := CodeBlock{
			Lang:    string(fenced.Language(source)),
			Content: segmentsText(fenced.Lines(), source),
		}
		if para, ok := fenced.PreviousSibling().(*ast.Paragraph); ok {
			cb.Hint = strings.TrimSpace(segmentsText(para.Lines(), source))
		}
		blocks = append(blocks, cb)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// CountDiffFences returns how many fenced blocks in content are tagged diff.
func CountDiffFences(content string) (int, error) {
	blocks, err := CodeBlocks([]byte(content))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range blocks {
		if b.Lang == "diff" {
			n++
		}
	}
	return n, nil
}
