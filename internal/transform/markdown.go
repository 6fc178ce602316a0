package transform

import (
	"bytes"
	"context"

	"github.com/russross/blackfriday/v2"

	"github.com/copytree/copytree/internal/pipeline"
)

// MarkdownStrip renders a Markdown document's text content, dropping
// formatting markup (headings become plain lines, emphasis/links collapse
// to their text, code fences keep their contents). Grounded on
// github.com/russross/blackfriday/v2, already pulled in indirectly by the
// teacher's cobra doc-generation toolchain (md2man); promoted to a direct
// dependency and put to its actual parsing use instead of staying unwired.
type MarkdownStrip struct{}

func (MarkdownStrip) Transform(_ context.Context, fe *pipeline.FileEntry) (string, error) {
	root := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse([]byte(fe.Content))

	var buf bytes.Buffer
	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering {
			if node.Type == blackfriday.Paragraph || node.Type == blackfriday.Heading || node.Type == blackfriday.Item {
				buf.WriteByte('\n')
			}
			return blackfriday.GoToNext
		}
		switch node.Type {
		case blackfriday.Text, blackfriday.Code, blackfriday.CodeBlock:
			buf.Write(node.Literal)
		case blackfriday.Hardbreak, blackfriday.Softbreak:
			buf.WriteByte('\n')
		}
		return blackfriday.GoToNext
	})

	return buf.String(), nil
}
