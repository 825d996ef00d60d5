package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/papernav/internal/paper"
)

// MarkdownParser handles Markdown exam papers using goldmark.
// Headings become sections, ordered-list items become questions.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*paper.Outline, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	title := strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown")
	b := newOutlineBuilder(title)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.addSection(string(node.Text(src)))

		case *ast.List:
			if node.IsOrdered() {
				num := node.Start
				for item := node.FirstChild(); item != nil; item = item.NextSibling() {
					prompt, opts := splitPromptOptions(strings.Join(blockLines(item, src), "\n"))
					b.addQuestion(num, prompt, opts)
					num++
				}
				continue
			}
			for _, line := range blockLines(node, src) {
				b.feed(line)
			}

		default:
			// Non-heading blocks go through the line classifier, so
			// numbered paragraphs still become questions.
			for _, line := range blockLines(n, src) {
				b.feed(line)
			}
		}
	}

	return b.build()
}

// blockLines collects the source lines of a block node and its
// descendants, trimmed, in document order.
func blockLines(n ast.Node, src []byte) []string {
	var out []string
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			out = append(out, strings.TrimSpace(string(seg.Value(src))))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, blockLines(c, src)...)
	}
	return out
}
