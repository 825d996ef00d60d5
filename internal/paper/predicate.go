package paper

// Predicate filters nodes during search. Implementations must be pure
// functions of the node's kind tag.
type Predicate interface {
	Matches(nv NodeIndex) bool
}

type kindPredicate Kind

func (p kindPredicate) Matches(nv NodeIndex) bool {
	return nv.Node.Kind == Kind(p)
}

// ByKind returns the predicate selecting nodes of the given kind.
func ByKind(k Kind) Predicate {
	return kindPredicate(k)
}
