package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/papernav/internal/paper"
)

// JSONParser handles JSON question catalogs exported by authoring
// tools. Category changes between consecutive questions open sections.
type JSONParser struct{}

type jsonCatalog struct {
	Title     string         `json:"title"`
	Subject   string         `json:"subject"`
	Questions []jsonQuestion `json:"questions"`
}

type jsonQuestion struct {
	ID       int          `json:"id"`
	Text     string       `json:"text"`
	Category string       `json:"category"`
	Options  []jsonOption `json:"options"`
}

type jsonOption struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

func (p *JSONParser) Parse(r io.Reader, filename string) (*paper.Outline, error) {
	var cat jsonCatalog
	if err := json.NewDecoder(r).Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	title := strings.TrimSpace(cat.Title)
	if title == "" {
		title = strings.TrimSuffix(filename, ".json")
	}
	b := newOutlineBuilder(title)

	var lastCategory string
	for _, q := range cat.Questions {
		if category := strings.TrimSpace(q.Category); category != "" && category != lastCategory {
			b.addSection(category)
			lastCategory = category
		}

		var opts []paper.Option
		for i, o := range q.Options {
			letter := strings.TrimSpace(o.Letter)
			if letter == "" {
				letter = string(rune('A' + i))
			}
			opts = append(opts, paper.Option{
				Letter: strings.ToUpper(letter),
				Text:   strings.TrimSpace(o.Text),
			})
		}
		b.addQuestion(q.ID, q.Text, opts)
	}

	return b.build()
}
