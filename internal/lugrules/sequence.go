// Package lugrules decides which lug settings a machine version allows.
//
// A lug setting is summarised by its kick counts: for each wheel, the number
// of lugs facing it. Operating instructions restrict these counts, so the
// legal settings form a catalog of sorted six-value sequences. The catalog is
// either generated from the version's constraints or loaded from a published
// table.
package lugrules

import (
	"slices"

	"m209/internal/variant"
)

// Sequence is a non-decreasing list of per-wheel kick counts.
type Sequence [variant.Wheels]int

// Sum returns the total number of lugs.
func (s Sequence) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Overlaps returns the number of two-lug bars implied by the sequence.
func (s Sequence) Overlaps() int {
	return s.Sum() - variant.Bars
}

// Sorted returns the sequence in non-decreasing order.
func (s Sequence) Sorted() Sequence {
	slices.Sort(s[:])
	return s
}

// adjacentRuns counts neighbouring positions holding the same value.
func (s Sequence) adjacentRuns() int {
	runs := 0
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			runs++
		}
	}
	return runs
}

// Covers reports whether every displacement 1..27 is the sum of some subset
// of the kick counts.
func (s Sequence) Covers() bool {
	var reachable uint64 = 1
	for _, v := range s {
		reachable |= reachable << uint(v)
	}
	const want = (uint64(1)<<(variant.Bars+1) - 1) &^ 1
	return reachable&want == want
}

// Allowed applies every sequence filter of c to a sorted sequence.
func Allowed(c *variant.Constraints, s Sequence) bool {
	overlaps := s.Overlaps()
	if overlaps < c.MinOverlap || overlaps > c.MaxOverlap {
		return false
	}
	evens := 0
	for i, v := range s {
		if v < c.MinKick || v > c.MaxKick {
			return false
		}
		if i > 0 && v < s[i-1] {
			return false
		}
		if v%2 == 0 {
			evens++
		}
		if c.NoPairKicks && i > 0 && v == s[i-1] {
			return false
		}
		if c.NoTripleKicks && i > 1 && v == s[i-1] && v == s[i-2] {
			return false
		}
	}
	if !c.EvenRule.Allows(evens) {
		return false
	}
	if c.RequireCoverage && !s.Covers() {
		return false
	}
	return true
}

// Less orders catalog sequences: fewer adjacent equal values first, then
// lower total, then by positions 2, 3, 4 ascending, position 5 descending
// and position 6 ascending.
func Less(a, b Sequence) bool {
	return Compare(a, b) < 0
}

// Compare is the three-way form of Less.
func Compare(a, b Sequence) int {
	if ra, rb := a.adjacentRuns(), b.adjacentRuns(); ra != rb {
		return ra - rb
	}
	if sa, sb := a.Sum(), b.Sum(); sa != sb {
		return sa - sb
	}
	for _, i := range []int{1, 2, 3} {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	if a[4] != b[4] {
		return b[4] - a[4]
	}
	return a[5] - b[5]
}

// Generate enumerates every sequence allowed by c, ordered by Compare.
// Versions without a catalog yield nil.
func Generate(c *variant.Constraints) []Sequence {
	if !c.UseCatalog {
		return nil
	}
	var out []Sequence
	var s Sequence
	var walk func(pos, from, sum int)
	walk = func(pos, from, sum int) {
		if sum > variant.Bars+c.MaxOverlap {
			return
		}
		if pos == variant.Wheels {
			if Allowed(c, s) {
				out = append(out, s)
			}
			return
		}
		for v := from; v <= c.MaxKick; v++ {
			s[pos] = v
			walk(pos+1, v, sum+v)
		}
	}
	walk(0, c.MinKick, 0)
	slices.SortStableFunc(out, Compare)
	return out
}
