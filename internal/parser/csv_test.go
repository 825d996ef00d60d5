package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/papernav/internal/paper"
)

func TestCSVParser_QuestionBank(t *testing.T) {
	input := `section,number,question,a,b
Algebra,1,What is 2+2?,3,4
Algebra,2,Solve x+1=3.,x=1,x=2
Geometry,3,Name a right angle.,90 degrees,
`
	p := &CSVParser{}
	outline, err := p.Parse(strings.NewReader(input), "bank.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outline.Title != "bank" {
		t.Errorf("expected title %q, got %q", "bank", outline.Title)
	}
	if outline.TotalQuestions != 3 {
		t.Errorf("expected 3 questions, got %d", outline.TotalQuestions)
	}

	want := []struct {
		kind  paper.Kind
		label string
	}{
		{paper.KindSection, "Section: Algebra"},
		{paper.KindQuestion, "Question 1"},
		{paper.KindQuestion, "Question 2"},
		{paper.KindSection, "Section: Geometry"},
		{paper.KindQuestion, "Question 3"},
	}
	if len(outline.Nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(outline.Nodes))
	}
	for i, w := range want {
		if outline.Nodes[i].Kind != w.kind {
			t.Errorf("node[%d]: expected kind %q, got %q", i, w.kind, outline.Nodes[i].Kind)
		}
		if outline.Nodes[i].Data.Label != w.label {
			t.Errorf("node[%d]: expected label %q, got %q", i, w.label, outline.Nodes[i].Data.Label)
		}
	}

	// Empty option cells are dropped.
	last := outline.Nodes[4].Data.Options
	if len(last) != 1 || last[0].Letter != "A" || last[0].Text != "90 degrees" {
		t.Errorf("unexpected options on last question: %+v", last)
	}
}

func TestCSVParser_QuotedFields(t *testing.T) {
	input := "number,question\n1,\"What, exactly, is 2+2?\"\n"
	p := &CSVParser{}
	outline, err := p.Parse(strings.NewReader(input), "quoted.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outline.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(outline.Nodes))
	}
	if outline.Nodes[0].Data.Text != "What, exactly, is 2+2?" {
		t.Errorf("unexpected question text: %q", outline.Nodes[0].Data.Text)
	}
}

func TestCSVParser_MissingQuestionColumn(t *testing.T) {
	p := &CSVParser{}
	_, err := p.Parse(strings.NewReader("foo,bar\n1,2\n"), "odd.csv")
	if err == nil {
		t.Fatal("expected error for header without question column")
	}
	if !strings.Contains(err.Error(), "no question column") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCSVParser_EmptyInput(t *testing.T) {
	p := &CSVParser{}
	if _, err := p.Parse(strings.NewReader(""), "empty.csv"); err == nil {
		t.Fatal("expected error for empty input")
	}
}
