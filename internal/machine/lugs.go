package machine

import (
	"math/rand/v2"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

// Lugs holds the lug cage setting as bar counts per lug type together with
// the displacement vector derived from them. The vector is recomputed by
// every mutator, so it is never stale.
type Lugs struct {
	typeCount lugrules.TypeCount
	vector    [variant.VectorSize]int
}

// NewLugs builds a lug setting from type counts without checking them.
func NewLugs(tc lugrules.TypeCount) Lugs {
	var l Lugs
	l.assign(tc)
	return l
}

// TypeCount returns a copy of the bar counts per type.
func (l *Lugs) TypeCount() lugrules.TypeCount {
	return l.typeCount
}

// Vector returns the displacement for each set of wheels presenting an
// active pin (bit w for wheel w+1).
func (l *Lugs) Vector() [variant.VectorSize]int {
	return l.vector
}

// Displacement returns the displacement for one wheel mask.
func (l *Lugs) Displacement(mask int) int {
	return l.vector[mask]
}

// SetTypeCount replaces the type counts if they pass the rules: structural
// checks always, catalog compliance when checkRules is set. It reports
// whether the setting was accepted; a rejected setting leaves l unchanged.
func (l *Lugs) SetTypeCount(r *lugrules.Rules, tc lugrules.TypeCount, checkRules bool) bool {
	if checkRules {
		if !r.TypeCountCompliant(&tc) {
			return false
		}
	} else if !r.Structural(&tc) {
		return false
	}
	l.assign(tc)
	return true
}

func (l *Lugs) assign(tc lugrules.TypeCount) {
	l.typeCount = tc
	l.computeVector()
}

func (l *Lugs) computeVector() {
	for mask := 0; mask < variant.VectorSize; mask++ {
		d := 0
		for i := 1; i < variant.TypeCountSize; i++ {
			if l.typeCount[i] != 0 && variant.TypeOf(i).Covers(mask) {
				d += l.typeCount[i]
			}
		}
		l.vector[mask] = d
	}
}

// Overlaps returns the number of two-lug bars.
func (l *Lugs) Overlaps() int {
	return lugrules.Overlaps(&l.typeCount)
}

// Randomize draws a random compliant lug setting. Catalog versions pick a
// catalog sequence, assign it to the wheels in random order and spread the
// overlaps over random wheel pairs; other versions draw a random type for
// each bar.
func (l *Lugs) Randomize(r *lugrules.Rules, rng *rand.Rand) error {
	for attempt := 0; attempt < maxRandomizeAttempts; attempt++ {
		var tc lugrules.TypeCount
		var ok bool
		if r.Constraints().UseCatalog {
			tc, ok = randomFromCatalog(r, rng)
		} else {
			tc, ok = randomBars(r, rng)
		}
		if ok && r.TypeCountCompliant(&tc) {
			l.assign(tc)
			return nil
		}
	}
	return ErrRandomizeExhausted
}

func randomFromCatalog(r *lugrules.Rules, rng *rand.Rand) (lugrules.TypeCount, bool) {
	var tc lugrules.TypeCount
	seq := r.Sequence(rng.IntN(r.Len()))
	perm := rng.Perm(variant.Wheels)
	var remaining [variant.Wheels]int
	for w := 0; w < variant.Wheels; w++ {
		remaining[w] = seq[perm[w]]
	}
	for o := seq.Overlaps(); o > 0; o-- {
		var open []int
		for w := 0; w < variant.Wheels; w++ {
			if remaining[w] > 0 {
				open = append(open, w)
			}
		}
		if len(open) < 2 {
			return tc, false
		}
		i := rng.IntN(len(open))
		j := rng.IntN(len(open) - 1)
		if j >= i {
			j++
		}
		a, b := open[i], open[j]
		tc[variant.TypeIndex(a+1, b+1)]++
		remaining[a]--
		remaining[b]--
	}
	for w := 0; w < variant.Wheels; w++ {
		tc[variant.TypeIndex(w+1, 0)] += remaining[w]
	}
	return tc, true
}

func randomBars(r *lugrules.Rules, rng *rand.Rand) (lugrules.TypeCount, bool) {
	var tc lugrules.TypeCount
	c := r.Constraints()
	overlaps := c.MinOverlap
	if c.MaxOverlap > c.MinOverlap {
		overlaps += rng.IntN(c.MaxOverlap - c.MinOverlap + 1)
	}
	if overlaps > variant.Bars {
		return tc, false
	}
	pairs := variant.TypeCountSize - variant.FirstPairType
	for i := 0; i < overlaps; i++ {
		tc[variant.FirstPairType+rng.IntN(pairs)]++
	}
	for i := overlaps; i < variant.Bars; i++ {
		tc[1+rng.IntN(variant.Wheels)]++
	}
	return tc, true
}
