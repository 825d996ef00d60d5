package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/papernav/internal/paper"
)

// TextParser handles plain text exam papers.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*paper.Outline, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newOutlineBuilder(strings.TrimSuffix(filename, ".txt"))
	for scanner.Scan() {
		b.feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b.build()
}
