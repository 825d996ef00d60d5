package paper

import "fmt"

// Outline is the product of parsing one source document: the node
// sequence plus the counts a Paper is constructed with.
type Outline struct {
	Title          string `json:"title"`
	Nodes          []Node `json:"nodes"`
	TotalQuestions int    `json:"total_questions"`
}

// Paper builds a fresh session over the outline's nodes. Outlines are
// shared between sessions (the sequence is immutable); papers never are.
func (o *Outline) Paper() (*Paper, error) {
	if len(o.Nodes) == 0 {
		return nil, fmt.Errorf("outline %q has no nodes", o.Title)
	}
	return New(o.Nodes, len(o.Nodes)-1, o.TotalQuestions), nil
}
