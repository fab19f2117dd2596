package tokenreduction

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// linesNode is satisfied by every goldmark block node that tracks its
// own source lines (ast.BaseBlock and everything that embeds it).
type linesNode interface {
	Lines() *text.Segments
}

// classifyStructuralLines runs content through goldmark's block parser
// and returns, per line, whether that line belongs to a heading, list
// item, table row, or fenced/indented code block. This replaces a
// hand-rolled prefix-regex classifier with goldmark's actual block
// tokenizer, which already tracks fence state correctly across nested
// blockquotes and lists rather than a flat toggle. A line holding at
// least two pipes with a leading, trailing or " | " separator is also
// marked as a table row, whether or not goldmark parses it as a table.
func classifyStructuralLines(content string) []bool {
	src := []byte(content)
	lineCount := strings.Count(content, "\n") + 1
	structural := make([]bool, lineCount)

	doc := markdownParser.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindListItem, ast.KindCodeBlock, ast.KindFencedCodeBlock,
			extast.KindTableRow, extast.KindTableHeader:
			markLines(structural, src, n)
		}
		return ast.WalkContinue, nil
	})
	for i, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.Count(t, "|") >= 2 && (strings.HasPrefix(t, "|") || strings.HasSuffix(t, "|") || strings.Contains(t, " | ")) {
			structural[i] = true
		}
	}
	return structural
}

func markLines(structural []bool, src []byte, n ast.Node) {
	ln, ok := n.(linesNode)
	if !ok {
		return
	}
	segs := ln.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		lineNo := lineNumberAt(src, seg.Start)
		if lineNo >= 0 && lineNo < len(structural) {
			structural[lineNo] = true
		}
	}
}

func lineNumberAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	n := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			n++
		}
	}
	return n
}
