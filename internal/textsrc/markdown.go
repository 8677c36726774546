package textsrc

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}
	frontmatterRe      = regexp.MustCompile(`(?s)^---\r?\n.*?\r?\n---\r?\n`)
	md                 = goldmark.New()
)

// IsMarkdownFile reports whether name has a markdown extension.
func IsMarkdownFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// RemoveFrontmatter strips a leading YAML frontmatter block.
func RemoveFrontmatter(content []byte) []byte {
	if loc := frontmatterRe.FindIndex(content); loc != nil {
		return content[loc[1]:]
	}
	return content
}

// PlainText renders markdown as speakable text: one line per block, markup
// removed, code and HTML blocks skipped.
func PlainText(source []byte) string {
	source = RemoveFrontmatter(source)
	doc := md.Parser().Parse(text.NewReader(source))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			if entering {
				b.Write(n.Label(source))
			}
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
		case *ast.Text:
			if !entering {
				break
			}
			b.Write(n.Segment.Value(source))
			switch {
			case n.HardLineBreak():
				b.WriteByte('\n')
			case n.SoftLineBreak():
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
