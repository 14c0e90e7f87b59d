package predicate

// Set is an immutable bundle of predicates, one request's worth. The
// zero value is an empty set that matches all active products.
type Set struct {
	preds []Predicate
}

// NewSet builds a Set from the given predicates.
func NewSet(preds ...Predicate) Set {
	out := make([]Predicate, len(preds))
	copy(out, preds)
	return Set{preds: out}
}

// Predicates returns the predicates in compilation order. Callers must
// not mutate the returned slice.
func (s Set) Predicates() []Predicate {
	return s.preds
}

// Len returns the number of predicates in the set.
func (s Set) Len() int {
	return len(s.preds)
}

// Has reports whether the set contains any predicate of the given
// dimension.
func (s Set) Has(dim Dimension) bool {
	for _, p := range s.preds {
		if p.Dimension() == dim {
			return true
		}
	}
	return false
}

// Without returns a new set with every predicate of the given dimensions
// removed. The receiver is unchanged. This is the primitive behind facet
// exclusion: category counts use Without(DimCategory), specification
// counts use Without(DimSpecification), and so on.
func (s Set) Without(dims ...Dimension) Set {
	out := make([]Predicate, 0, len(s.preds))
	for _, p := range s.preds {
		if !dimIn(p.Dimension(), dims) {
			out = append(out, p)
		}
	}
	return Set{preds: out}
}

// With returns a new set with the given predicate appended.
func (s Set) With(p Predicate) Set {
	out := make([]Predicate, 0, len(s.preds)+1)
	out = append(out, s.preds...)
	out = append(out, p)
	return Set{preds: out}
}

func dimIn(d Dimension, dims []Dimension) bool {
	for _, dd := range dims {
		if d == dd {
			return true
		}
	}
	return false
}
