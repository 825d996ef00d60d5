package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/papernav/internal/paper"
)

// Line shapes recognized in plain exam text.
var (
	questionLine = regexp.MustCompile(`(?i)^(?:q(?:uestion)?\s*)?(\d{1,3})\s*[.):]\s*(.+)$`)
	optionLine   = regexp.MustCompile(`(?i)^\(?([a-h])[.):]\s*(.+)$`)
	sectionLine  = regexp.MustCompile(`(?i)^(?:section|part)\b[\s:.\-]*(.*)$`)
)

// outlineBuilder accumulates classified source lines into the flat node
// sequence a paper navigates. Text-shaped formats feed lines one at a
// time; structured formats call addSection/addQuestion directly. Both
// finish with build.
type outlineBuilder struct {
	title     string
	nodes     []paper.Node
	questions int

	// open question being accumulated by feed
	open  bool
	qnum  int
	qtext strings.Builder
	qopts []paper.Option
}

func newOutlineBuilder(title string) *outlineBuilder {
	return &outlineBuilder{title: title}
}

// feed classifies one line: question openers start a new question,
// option lines attach to the open question, section headers close it
// and append a section node (all-caps headings count only between
// questions). Anything else continues the open question's prompt; text
// outside a question is preamble and is dropped.
func (b *outlineBuilder) feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if m := questionLine.FindStringSubmatch(line); m != nil {
		b.flushQuestion()
		b.qnum, _ = strconv.Atoi(m[1])
		b.qtext.WriteString(m[2])
		b.open = true
		return
	}

	if b.open {
		if m := optionLine.FindStringSubmatch(line); m != nil {
			b.qopts = append(b.qopts, paper.Option{
				Letter: strings.ToUpper(m[1]),
				Text:   strings.TrimSpace(m[2]),
			})
			return
		}
	}

	if sectionLine.MatchString(line) || (!b.open && isUpperHeading(line)) {
		b.addSection(line)
		return
	}

	if b.open {
		b.qtext.WriteString("\n")
		b.qtext.WriteString(line)
	}
}

// addSection closes any open question and appends a section node.
func (b *outlineBuilder) addSection(heading string) {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return
	}
	b.flushQuestion()
	b.nodes = append(b.nodes, paper.Node{
		Kind: paper.KindSection,
		Data: paper.Data{
			Label: sectionLabel(heading),
			Text:  heading,
		},
	})
}

// addQuestion closes any open question and appends a completed one.
// num <= 0 falls back to the running question count.
func (b *outlineBuilder) addQuestion(num int, text string, opts []paper.Option) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.flushQuestion()
	b.appendQuestion(num, text, opts)
}

func (b *outlineBuilder) flushQuestion() {
	if !b.open {
		return
	}
	text := strings.TrimSpace(b.qtext.String())
	num, opts := b.qnum, b.qopts
	b.open = false
	b.qnum = 0
	b.qtext.Reset()
	b.qopts = nil
	if text != "" {
		b.appendQuestion(num, text, opts)
	}
}

func (b *outlineBuilder) appendQuestion(num int, text string, opts []paper.Option) {
	b.questions++
	if num <= 0 {
		num = b.questions
	}
	b.nodes = append(b.nodes, paper.Node{
		Kind: paper.KindQuestion,
		Data: paper.Data{
			Label:   fmt.Sprintf("Question %d", num),
			Text:    text,
			Options: opts,
		},
	})
}

// build finishes the outline. A source yielding no nodes is an error.
func (b *outlineBuilder) build() (*paper.Outline, error) {
	b.flushQuestion()
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("%s: no questions or sections found", b.title)
	}
	return &paper.Outline{
		Title:          b.title,
		Nodes:          b.nodes,
		TotalQuestions: b.questions,
	}, nil
}

// splitPromptOptions separates trailing option lines from a question
// blob ("What is X?\nA) one\nB) two").
func splitPromptOptions(text string) (string, []paper.Option) {
	var prompt []string
	var opts []paper.Option
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil {
			opts = append(opts, paper.Option{
				Letter: strings.ToUpper(m[1]),
				Text:   strings.TrimSpace(m[2]),
			})
			continue
		}
		prompt = append(prompt, line)
	}
	return strings.Join(prompt, "\n"), opts
}

// sectionLabel keeps headings that already name themselves a section or
// part, and prefixes everything else.
func sectionLabel(heading string) string {
	if sectionLine.MatchString(heading) {
		return heading
	}
	return "Section: " + heading
}

// isUpperHeading treats short all-caps lines as section headings.
func isUpperHeading(line string) bool {
	if len(line) < 3 || len(line) > 60 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
