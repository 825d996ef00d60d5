// Package intent maps free-form utterances onto paper intents. The
// grammar is a small keyword walk with fuzzy matching so voice-style
// input survives transcription typos.
package intent

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/dgallion1/papernav/internal/paper"
)

// ParseError reports an utterance the grammar could not map to an
// intent.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// Parse turns one utterance into a paper intent.
func Parse(text string) (paper.Intent, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, &ParseError{Input: text, Reason: "empty input"}
	}

	// Text after the first colon is a note body and skips tokenizing.
	command, noteText := raw, ""
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		command, noteText = raw[:i], strings.TrimSpace(raw[i+1:])
	}

	words := tokenize(command)
	if len(words) == 0 {
		return nil, &ParseError{Input: text, Reason: "empty input"}
	}

	p := &parser{input: text, words: words, note: noteText}
	return p.parse()
}

// fuzzy reports whether word means target, tolerating one edit on
// targets long enough to carry a typo.
func fuzzy(word, target string) bool {
	if word == target {
		return true
	}
	if len(target) < 4 {
		return false
	}
	return levenshtein.ComputeDistance(word, target) <= 1
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Fields(sb.String())
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Filler words dropped before a locator so "go to the next question"
// and "next question" parse alike.
var fillerWords = map[string]bool{
	"go": true, "to": true, "the": true, "a": true, "an": true,
	"me": true, "show": true, "take": true, "jump": true, "move": true,
	"open": true, "read": true, "please": true,
}

type parser struct {
	input string
	words []string
	pos   int
	note  string
}

func (p *parser) peek() string {
	if p.pos < len(p.words) {
		return p.words[p.pos]
	}
	return ""
}

func (p *parser) next() string {
	w := p.peek()
	if w != "" {
		p.pos++
	}
	return w
}

func (p *parser) done() bool { return p.pos >= len(p.words) }

func (p *parser) skipFiller() {
	for !p.done() && fillerWords[p.peek()] {
		p.pos++
	}
}

func (p *parser) skipWords(words ...string) {
	for !p.done() {
		w := p.peek()
		skipped := false
		for _, s := range words {
			if w == s {
				p.pos++
				skipped = true
				break
			}
		}
		if !skipped {
			return
		}
	}
}

func (p *parser) reject(reason string) *ParseError {
	return &ParseError{Input: p.input, Reason: reason}
}

func (p *parser) parse() (paper.Intent, error) {
	if p.isMeta() {
		return p.parseMeta()
	}

	p.skipFiller()
	switch w := p.peek(); {
	case fuzzy(w, "mark"):
		p.next()
		return p.parseWrite(paper.OpMark)
	case fuzzy(w, "skip"):
		p.next()
		return p.parseWrite(paper.OpSkip)
	case fuzzy(w, "note") || fuzzy(w, "annotate"):
		p.next()
		return p.parseNote()
	}

	r, err := p.readIntent()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.reject(fmt.Sprintf("unexpected word %q", p.peek()))
	}
	return r, nil
}

// isMeta looks for a counting question anywhere in the utterance.
func (p *parser) isMeta() bool {
	for _, w := range p.words {
		if fuzzy(w, "many") || fuzzy(w, "count") || fuzzy(w, "counts") || fuzzy(w, "total") {
			return true
		}
	}
	return false
}

func (p *parser) parseMeta() (paper.Intent, error) {
	for _, w := range p.words {
		if fuzzy(w, "marked") || w == "mark" || fuzzy(w, "review") {
			return paper.Meta{Query: paper.QueryMarked}, nil
		}
		if fuzzy(w, "skipped") || w == "skip" {
			return paper.Meta{Query: paper.QuerySkipped}, nil
		}
	}
	return nil, p.reject("count of what: marked or skipped")
}

func (p *parser) parseWrite(op paper.WriteOp) (paper.Intent, error) {
	p.skipFiller()
	if p.done() {
		return nil, p.reject(fmt.Sprintf("%s needs a locator", op))
	}

	var reads []paper.Read
	for {
		r, err := p.readIntent()
		if err != nil {
			return nil, err
		}
		reads = append(reads, r)

		p.skipWords("for", "review")
		if p.done() {
			break
		}
		if w := p.peek(); w == "and" || w == "then" {
			p.next()
			continue
		}
		return nil, p.reject(fmt.Sprintf("unexpected word %q", p.peek()))
	}

	return paper.Write{Op: op, Reads: reads}, nil
}

func (p *parser) parseNote() (paper.Intent, error) {
	p.skipWords("to", "on", "for", "the", "a")
	if p.done() {
		return nil, p.reject("note needs a locator")
	}

	var reads []paper.Read
	for {
		r, err := p.readIntent()
		if err != nil {
			return nil, err
		}
		reads = append(reads, r)

		if p.done() {
			break
		}
		if w := p.peek(); w == "and" || w == "then" {
			p.next()
			continue
		}
		break
	}

	// Without a colon the words after the locator are the note body.
	text := p.note
	if text == "" {
		text = strings.Join(p.words[p.pos:], " ")
		p.pos = len(p.words)
	}
	if text == "" {
		return nil, p.reject("note needs text")
	}

	return paper.Write{Op: paper.OpNote, Reads: reads, Text: text}, nil
}

// readIntent parses one locator: a direction word, an anchor word, or a
// kind with a position.
func (p *parser) readIntent() (paper.Read, error) {
	p.skipFiller()
	if p.done() {
		return paper.Read{}, p.reject("reference is incomplete")
	}

	switch w := p.peek(); {
	case fuzzy(w, "next"):
		p.next()
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Current(0)}, nil

	case fuzzy(w, "previous") || w == "prev":
		p.next()
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Current(-1)}, nil

	case fuzzy(w, "first"):
		p.next()
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Start(0)}, nil

	case fuzzy(w, "last") || fuzzy(w, "final"):
		p.next()
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.End(0)}, nil

	case fuzzy(w, "forward") || fuzzy(w, "ahead"):
		p.next()
		n, ok := p.number()
		if !ok {
			n = 1
		}
		if n < 1 {
			return paper.Read{}, p.reject("forward needs a positive count")
		}
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Current(n - 1)}, nil

	case fuzzy(w, "back") || fuzzy(w, "backward") || fuzzy(w, "backwards"):
		p.next()
		n, ok := p.number()
		if !ok {
			n = 1
		}
		if n < 1 {
			return paper.Read{}, p.reject("back needs a positive count")
		}
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Current(-n)}, nil

	case w == "this" || fuzzy(w, "current"):
		return paper.Read{}, p.reject("cannot address the node under the cursor; say next or previous")
	}

	// "question 5", "section 2", or a bare position "5".
	if kind, ok := p.kind(); ok {
		n, ok := p.number()
		if !ok {
			return paper.Read{}, p.reject(fmt.Sprintf("%s reference needs a position", kind))
		}
		if n < 1 {
			return paper.Read{}, p.reject("positions are numbered from 1")
		}
		return paper.Read{Kind: kind, Ref: paper.Start(n - 1)}, nil
	}
	if n, ok := p.number(); ok {
		if n < 1 {
			return paper.Read{}, p.reject("positions are numbered from 1")
		}
		return paper.Read{Kind: p.kindOrDefault(), Ref: paper.Start(n - 1)}, nil
	}

	return paper.Read{}, p.reject(fmt.Sprintf("unrecognized word %q", p.peek()))
}

func (p *parser) kind() (paper.Kind, bool) {
	switch w := p.peek(); {
	case fuzzy(w, "question"):
		p.next()
		return paper.KindQuestion, true
	case fuzzy(w, "section") || fuzzy(w, "part"):
		p.next()
		return paper.KindSection, true
	}
	return "", false
}

func (p *parser) kindOrDefault() paper.Kind {
	if k, ok := p.kind(); ok {
		return k
	}
	return paper.KindQuestion
}

func (p *parser) number() (int, bool) {
	w := p.peek()
	if w == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(w); err == nil {
		p.next()
		return n, true
	}
	if n, ok := numberWords[w]; ok {
		p.next()
		return n, true
	}
	return 0, false
}
