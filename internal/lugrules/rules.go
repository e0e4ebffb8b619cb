package lugrules

import (
	"errors"
	"fmt"
	"slices"

	"m209/internal/variant"
)

// ErrEmptyCatalog is returned when a catalog version ends up with no legal
// sequence.
var ErrEmptyCatalog = errors.New("no legal lug count sequence")

// TypeCount holds the number of bars of each lug type, indexed by
// variant.TypeIndex.
type TypeCount = [variant.TypeCountSize]int

// Rules is the immutable compliance checker of one attack. It is safe for
// concurrent use.
type Rules struct {
	constraints variant.Constraints
	ordered     []Sequence
	valid       map[Sequence]struct{}
}

// New builds the rules for c. When published is non-nil its sequences are
// trusted instead of generating the catalog from c.
func New(c variant.Constraints, published *Catalog) (*Rules, error) {
	r := &Rules{constraints: c}
	if !c.UseCatalog {
		return r, nil
	}
	if published != nil {
		r.ordered = published.Sequences()
	} else {
		r.ordered = Generate(&c)
	}
	if len(r.ordered) == 0 {
		return nil, fmt.Errorf("%w: version %s", ErrEmptyCatalog, c.Version)
	}
	r.valid = make(map[Sequence]struct{}, len(r.ordered))
	for _, s := range r.ordered {
		r.valid[s] = struct{}{}
	}
	return r, nil
}

// MustNew is New for constraint sets known to produce a catalog.
func MustNew(c variant.Constraints) *Rules {
	r, err := New(c, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Constraints returns a pointer to the rules' constraint set. Callers must not
// modify it.
func (r *Rules) Constraints() *variant.Constraints {
	return &r.constraints
}

// Sequences returns the catalog in order.
func (r *Rules) Sequences() []Sequence {
	return slices.Clone(r.ordered)
}

// Len returns the catalog size.
func (r *Rules) Len() int {
	return len(r.ordered)
}

// Sequence returns the i-th catalog entry.
func (r *Rules) Sequence(i int) Sequence {
	return r.ordered[i]
}

// Contains reports whether a sorted sequence is in the catalog.
func (r *Rules) Contains(s Sequence) bool {
	_, ok := r.valid[s]
	return ok
}

// KickCounts projects type counts to per-wheel lug counts (unsorted).
func KickCounts(tc *TypeCount) Sequence {
	var s Sequence
	for i := 1; i < variant.TypeCountSize; i++ {
		if tc[i] == 0 {
			continue
		}
		t := variant.TypeOf(i)
		if t.A != 0 {
			s[t.A-1] += tc[i]
		}
		if t.B != 0 {
			s[t.B-1] += tc[i]
		}
	}
	return s
}

// Overlaps returns the number of two-lug bars.
func Overlaps(tc *TypeCount) int {
	n := 0
	for i := variant.FirstPairType; i < variant.TypeCountSize; i++ {
		n += tc[i]
	}
	return n
}

// Bars returns the number of bars carrying at least one lug.
func Bars(tc *TypeCount) int {
	n := 0
	for i := 1; i < variant.TypeCountSize; i++ {
		n += tc[i]
	}
	return n
}

// Structural checks the conditions every setting must meet whatever the
// catalog: non-negative counts, an empty slot 0, overlaps within bounds and
// the bar count.
func (r *Rules) Structural(tc *TypeCount) bool {
	if tc[0] != 0 {
		return false
	}
	for i := 1; i < variant.TypeCountSize; i++ {
		if tc[i] < 0 {
			return false
		}
	}
	c := &r.constraints
	overlaps := Overlaps(tc)
	if overlaps < c.MinOverlap || overlaps > c.MaxOverlap {
		return false
	}
	bars := Bars(tc)
	if c.ExactBars {
		return bars == variant.Bars
	}
	return bars <= variant.Bars
}

// TypeCountCompliant reports whether tc is a legal setting: structural checks,
// then catalog membership of its sorted kick counts for catalog versions, or
// the per-wheel kick bound otherwise.
func (r *Rules) TypeCountCompliant(tc *TypeCount) bool {
	if !r.Structural(tc) {
		return false
	}
	kicks := KickCounts(tc)
	if r.constraints.UseCatalog {
		return r.Contains(kicks.Sorted())
	}
	for _, k := range kicks {
		if k < r.constraints.MinKick || k > r.constraints.MaxKick {
			return false
		}
	}
	return true
}
