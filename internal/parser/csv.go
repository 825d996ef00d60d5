package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/papernav/internal/paper"
)

// CSVParser handles CSV question banks. The header row names the
// columns: section, number, question, then one column per option.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*paper.Outline, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newOutlineBuilder(strings.TrimSuffix(filename, ".csv"))
	if len(records) == 0 {
		return b.build()
	}

	cols := csvColumns(records[0])
	if cols.question < 0 {
		return nil, fmt.Errorf("parse csv: no question column in header row")
	}

	var lastSection string
	for _, row := range records[1:] {
		// A new value in the section column opens a section node.
		if section := csvCell(row, cols.section); section != "" && section != lastSection {
			b.addSection(section)
			lastSection = section
		}

		text := csvCell(row, cols.question)
		if text == "" {
			continue
		}

		num := 0
		if v, err := strconv.Atoi(csvCell(row, cols.number)); err == nil {
			num = v
		}

		var opts []paper.Option
		for i, col := range cols.options {
			if v := csvCell(row, col); v != "" {
				opts = append(opts, paper.Option{
					Letter: string(rune('A' + i)),
					Text:   v,
				})
			}
		}
		b.addQuestion(num, text, opts)
	}

	return b.build()
}

type csvLayout struct {
	section  int
	number   int
	question int
	options  []int
}

func csvColumns(headers []string) csvLayout {
	cols := csvLayout{section: -1, number: -1, question: -1}
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "section", "part":
			cols.section = i
		case "number", "no", "num", "#":
			cols.number = i
		case "question", "text", "prompt":
			cols.question = i
		default:
			cols.options = append(cols.options, i)
		}
	}
	return cols
}

func csvCell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
