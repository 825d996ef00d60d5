package paper

import "fmt"

// Kind tags a node as one element type of the paper.
type Kind string

const (
	KindQuestion Kind = "question"
	KindSection  Kind = "section"
)

// Option is one answer choice attached to a question node.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Data is the content a node carries. The resolver treats it as opaque;
// only the annotation stores ever copy it.
type Data struct {
	Label   string   `json:"label"`             // display label, e.g. "Question 3"
	Text    string   `json:"text"`              // prompt or heading text
	Options []Option `json:"options,omitempty"` // answer choices (questions only)
}

// clone returns a value snapshot with its own options slice.
func (d Data) clone() Data {
	out := d
	if len(d.Options) > 0 {
		out.Options = make([]Option, len(d.Options))
		copy(out.Options, d.Options)
	}
	return out
}

// describe names the node for status messages, falling back to its
// position when the label is empty.
func (d Data) describe(index int) string {
	if d.Label != "" {
		return d.Label
	}
	return fmt.Sprintf("node %d", index)
}

// Node is one element of the paper. Nodes are immutable once the
// sequence is built.
type Node struct {
	Kind Kind `json:"kind"`
	Data Data `json:"data"`
}

// NodeIndex pairs a node with its absolute position in the sequence.
// It exists only transiently during resolution and is never stored.
type NodeIndex struct {
	Index int
	Node  Node
}

// Note is one annotation attached to a node index. An index may carry
// any number of notes; insertion order is preserved.
type Note struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
