package ingestion

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// PlainText renders markdown source as plain text. Block elements end with a
// newline, soft line breaks become spaces, and raw HTML is dropped.
func PlainText(src []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// Title returns the text of the first line starting with "# " or "## ", or
// fallback when there is none.
func Title(src []byte, fallback string) string {
	for _, line := range strings.Split(string(src), "\n") {
		var title string
		switch {
		case strings.HasPrefix(line, "# "):
			title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "## "):
			title = strings.TrimSpace(line[3:])
		default:
			continue
		}
		if title != "" {
			return title
		}
		break
	}
	return fallback
}

// Stem is the base name of p without its extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Chapter is the first segment of a nested relative path, or "General" for
// files at the docs root.
func Chapter(relPath string) string {
	first, _, nested := strings.Cut(strings.TrimPrefix(relPath, "/"), "/")
	if !nested || first == "" {
		return DefaultChapter
	}
	return first
}
