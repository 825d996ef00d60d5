package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/dgallion1/papernav/internal/paper"
)

// XMLParser handles Moodle-style XML quiz exports: <question> elements
// under a <quiz> root, with type="category" entries marking section
// boundaries.
type XMLParser struct{}

func (p *XMLParser) Parse(r io.Reader, filename string) (*paper.Outline, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	b := newOutlineBuilder(strings.TrimSuffix(filename, ".xml"))

	questions, err := xmlquery.QueryAll(doc, "//question")
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	for _, q := range questions {
		if strings.EqualFold(q.SelectAttr("type"), "category") {
			if n, err := xmlquery.Query(q, "category/text"); err == nil && n != nil {
				b.addSection(categoryLeaf(n.InnerText()))
			}
			continue
		}

		text, err := xmlquery.Query(q, "questiontext/text")
		if err != nil || text == nil {
			continue
		}

		var opts []paper.Option
		if answers, err := xmlquery.QueryAll(q, "answer/text"); err == nil {
			for i, a := range answers {
				opts = append(opts, paper.Option{
					Letter: string(rune('A' + i)),
					Text:   strings.TrimSpace(a.InnerText()),
				})
			}
		}
		b.addQuestion(0, text.InnerText(), opts)
	}

	return b.build()
}

// categoryLeaf trims the $course$/top/... prefix Moodle puts on
// category paths.
func categoryLeaf(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return strings.TrimSpace(path[i+1:])
	}
	return path
}
