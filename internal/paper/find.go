package paper

// finder walks the node sequence in one direction, spending one unit of
// skip per predicate match, so a skip of s yields the (s+1)-th match in
// scan order. It never wraps and never revisits an index; restart by
// constructing a new finder.
type finder struct {
	nodes []Node
	pred  Predicate
	next  int // next index to examine
	skip  int // matches still to pass over
}

// forward scans from the current position toward the end of the
// sequence, inclusive of the starting index.
func (f *finder) forward() (NodeIndex, bool) {
	for f.next >= 0 && f.next < len(f.nodes) {
		nv := NodeIndex{Index: f.next, Node: f.nodes[f.next]}
		f.next++
		if !f.pred.Matches(nv) {
			continue
		}
		if f.skip >= 1 {
			f.skip--
			continue
		}
		return nv, true
	}
	return NodeIndex{}, false
}

// backward scans from the current position down to and including index 0.
func (f *finder) backward() (NodeIndex, bool) {
	for f.next >= 0 && f.next < len(f.nodes) {
		nv := NodeIndex{Index: f.next, Node: f.nodes[f.next]}
		f.next--
		if !f.pred.Matches(nv) {
			continue
		}
		if f.skip >= 1 {
			f.skip--
			continue
		}
		return nv, true
	}
	return NodeIndex{}, false
}
