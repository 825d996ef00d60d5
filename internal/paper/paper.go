// Package paper implements a relative-addressing navigation and
// annotation engine over an ordered sequence of typed exam nodes.
//
// A Paper owns the node sequence and the session's mutable state: the
// cursor (the last index a read intent reached), the marked and skipped
// annotation maps, and the note list. Intents are dispatched through
// Resolve. The package performs no I/O and no locking; callers sharing a
// Paper across goroutines must serialize access themselves.
package paper

import "fmt"

// Paper is the session state for one exam paper.
type Paper struct {
	nodes          []Node
	prevIndex      int
	lastIndex      int
	totalQuestions int

	marked  map[int]Data
	skipped map[int]Data
	notes   []Note
}

// New builds a Paper over nodes. lastIndex bounds End-relative
// references (normally len(nodes)-1) and must be below len(nodes);
// totalQuestions is trusted as supplied, not recounted.
func New(nodes []Node, lastIndex, totalQuestions int) *Paper {
	return &Paper{
		nodes:          nodes,
		lastIndex:      lastIndex,
		totalQuestions: totalQuestions,
		marked:         make(map[int]Data),
		skipped:        make(map[int]Data),
	}
}

// Len returns the number of nodes in the sequence.
func (p *Paper) Len() int { return len(p.nodes) }

// PrevIndex returns the cursor: the last index a read intent resolved.
func (p *Paper) PrevIndex() int { return p.prevIndex }

// LastIndex returns the anchor End-relative references scan back from.
func (p *Paper) LastIndex() int { return p.lastIndex }

// TotalQuestions returns the question count supplied at construction.
func (p *Paper) TotalQuestions() int { return p.totalQuestions }

// NumMarked returns how many distinct indices are marked for review.
func (p *Paper) NumMarked() int { return len(p.marked) }

// NumSkipped returns how many distinct indices are skipped.
func (p *Paper) NumSkipped() int { return len(p.skipped) }

// Node returns the node at index.
func (p *Paper) Node(index int) (Node, bool) {
	if index < 0 || index >= len(p.nodes) {
		return Node{}, false
	}
	return p.nodes[index], true
}

// Marked returns a copy of the marked annotations keyed by node index.
func (p *Paper) Marked() map[int]Data {
	out := make(map[int]Data, len(p.marked))
	for i, d := range p.marked {
		out[i] = d.clone()
	}
	return out
}

// Skipped returns a copy of the skipped annotations keyed by node index.
func (p *Paper) Skipped() map[int]Data {
	out := make(map[int]Data, len(p.skipped))
	for i, d := range p.skipped {
		out[i] = d.clone()
	}
	return out
}

// Notes returns a copy of the note list in insertion order.
func (p *Paper) Notes() []Note {
	out := make([]Note, len(p.notes))
	copy(out, p.notes)
	return out
}

// Result carries the outcome of a resolved intent. Reads populate Index
// and Data; writes populate Index and Message; metas populate Message
// and set Index to -1.
type Result struct {
	Index   int    `json:"index"`
	Data    *Data  `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Resolve dispatches one intent against the paper.
func (p *Paper) Resolve(it Intent) (Result, error) {
	switch it := it.(type) {
	case Read:
		return p.resolveRead(it)
	case Write:
		return p.resolveWrite(it)
	case Meta:
		return p.resolveMeta(it)
	default:
		return Result{}, fmt.Errorf("unsupported intent %T", it)
	}
}

// resolveRead locates the node and advances the cursor. A failed read
// leaves the cursor where it was.
func (p *Paper) resolveRead(r Read) (Result, error) {
	nv, err := p.resolveReadIntent(r)
	if err != nil {
		return Result{}, err
	}
	p.prevIndex = nv.Index
	data := nv.Node.Data.clone()
	return Result{Index: nv.Index, Data: &data}, nil
}

// resolveReadIntent resolves without side effects. Write batches probe
// through it so that batch evaluation never moves the cursor.
func (p *Paper) resolveReadIntent(r Read) (NodeIndex, error) {
	return p.resolveReference(r.Ref, ByKind(r.Kind))
}

// resolveReference derives the anchor and required skip from the
// reference and runs the finder in the reference's direction.
//
// Current references add one to the skip so they always move past the
// node the cursor sits on; Start and End use the offset magnitude as is.
func (p *Paper) resolveReference(ref Reference, pred Predicate) (NodeIndex, error) {
	var anchor, skip int
	switch ref.Anchor {
	case AnchorStart:
		anchor, skip = 0, abs(ref.Offset)
	case AnchorCurrent:
		anchor, skip = p.prevIndex, abs(ref.Offset)+1
	case AnchorEnd:
		anchor, skip = p.lastIndex, abs(ref.Offset)
	default:
		return NodeIndex{}, fmt.Errorf("unknown anchor %q", ref.Anchor)
	}

	f := finder{nodes: p.nodes, pred: pred, next: anchor, skip: skip}
	if ref.Forward() {
		if nv, ok := f.forward(); ok {
			return nv, nil
		}
		return NodeIndex{}, &NotFoundError{Direction: DirForward}
	}
	if nv, ok := f.backward(); ok {
		return nv, nil
	}
	return NodeIndex{}, &NotFoundError{Direction: DirBackward}
}

// resolveWrite evaluates every read in the batch in order and applies
// the operation to the last entry's target. Earlier results are
// discarded; a failure of the last entry fails the whole write even if
// earlier entries succeeded. State is untouched until the deciding read
// has resolved.
func (p *Paper) resolveWrite(w Write) (Result, error) {
	if len(w.Reads) == 0 {
		return Result{}, ErrEmptyBatch
	}

	var (
		target  NodeIndex
		lastErr error
	)
	for _, r := range w.Reads {
		target, lastErr = p.resolveReadIntent(r)
	}
	if lastErr != nil {
		return Result{}, &BatchError{Op: w.Op, Err: lastErr}
	}

	label := target.Node.Data.describe(target.Index)
	switch w.Op {
	case OpMark:
		p.marked[target.Index] = target.Node.Data.clone()
		return Result{Index: target.Index, Message: fmt.Sprintf("Marked %s for review.", label)}, nil
	case OpSkip:
		p.skipped[target.Index] = target.Node.Data.clone()
		return Result{Index: target.Index, Message: fmt.Sprintf("Skipped %s.", label)}, nil
	case OpNote:
		p.notes = append(p.notes, Note{Index: target.Index, Text: w.Text})
		return Result{Index: target.Index, Message: fmt.Sprintf("Added a note to %s.", label)}, nil
	default:
		return Result{}, fmt.Errorf("unknown write op %q", w.Op)
	}
}

// resolveMeta formats an annotation count. Metas never touch state.
func (p *Paper) resolveMeta(m Meta) (Result, error) {
	switch m.Query {
	case QueryMarked:
		msg := fmt.Sprintf("%d of %d questions marked for review.", len(p.marked), p.totalQuestions)
		return Result{Index: -1, Message: msg}, nil
	case QuerySkipped:
		msg := fmt.Sprintf("%d of %d questions skipped.", len(p.skipped), p.totalQuestions)
		return Result{Index: -1, Message: msg}, nil
	default:
		return Result{}, fmt.Errorf("unknown meta query %q", m.Query)
	}
}
