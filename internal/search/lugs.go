package search

import (
	"fmt"

	"m209/internal/machine"
	"m209/internal/variant"
)

// lugDeltas lists, per number of types changed together, the signed changes
// applied to their bar counts. Every delta sums to zero, so the number of
// bars is kept.
var lugDeltas = map[int][][]int{
	2: {
		{-1, 1}, {1, -1}, {-2, 2}, {2, -2},
	},
	3: {
		{-1, -1, 2}, {-1, 2, -1}, {2, -1, -1},
		{1, 1, -2}, {1, -2, 1}, {-2, 1, 1},
	},
	4: {
		{1, 1, -1, -1}, {1, -1, 1, -1}, {1, -1, -1, 1},
		{-1, 1, 1, -1}, {-1, 1, -1, 1}, {-1, -1, 1, 1},
	},
}

// lugTypes are the type slots the lug climb changes: the six single-lug
// types and the fifteen wheel pairs.
var lugTypes = variant.Types()

// lugClimb is the state of one HillClimbLugs run.
type lugClimb struct {
	s          *Searcher
	deltas     [][]int
	checkRules bool
	pins       PinSearch

	best     float64
	bestLugs machine.Lugs
	bestPins machine.Pins
	err      error
}

// HillClimbLugs tries every change of level (2, 3 or 4) lug type counts at
// once. A change that breaks the structural rules, or the catalog when
// checkRules is set, is skipped. After each change the pins are searched as
// selected by pins; the change is kept only if the score strictly improves,
// otherwise lugs and pins are rolled back. It returns the best score and
// sets State.Improved.
func (s *Searcher) HillClimbLugs(level int, checkRules bool, pins PinSearch) (float64, error) {
	deltas, ok := lugDeltas[level]
	if !ok {
		return 0, fmt.Errorf("lug climb level %d not in 2..4", level)
	}
	s.State.Improved = false
	c := &lugClimb{
		s:          s,
		deltas:     deltas,
		checkRules: checkRules,
		pins:       pins,
		best:       s.Score(),
		bestLugs:   s.Key.Lugs(),
		bestPins:   s.Key.Pins(),
	}

	chosen := make([]int, level)
	var walk func(start, depth int) bool
	walk = func(start, depth int) bool {
		if depth == level {
			return c.try(chosen)
		}
		for i := start; i <= len(lugTypes)-(level-depth); i++ {
			chosen[depth] = lugTypes[i]
			if !walk(i+1, depth+1) {
				return false
			}
		}
		return true
	}
	walk(0, 0)

	s.Key.SetLugs(c.bestLugs)
	s.Key.SetPins(c.bestPins)
	return c.best, c.err
}

// try applies each delta to the chosen types in turn. It returns false when
// the climb must end: on stop, on error, or at the first improvement in
// quick mode.
func (c *lugClimb) try(types []int) bool {
	s, k := c.s, c.s.Key
	for _, delta := range c.deltas {
		if s.Stopped() {
			return false
		}
		tc := c.bestLugs.TypeCount()
		valid := true
		for i, t := range types {
			tc[t] += delta[i]
			if tc[t] < 0 {
				valid = false
				break
			}
		}
		if !valid || !k.SetTypeCount(tc, c.checkRules) {
			continue
		}
		score, err := s.searchPins(c.pins)
		if err != nil {
			c.err = err
			return false
		}
		if score > c.best {
			c.best = score
			c.bestLugs = k.Lugs()
			c.bestPins = k.Pins()
			s.State.Improved = true
			if s.State.Quick {
				return false
			}
			continue
		}
		k.SetLugs(c.bestLugs)
		k.SetPins(c.bestPins)
	}
	return true
}

// searchPins scores the key after a lug change using the selected pin
// search.
func (s *Searcher) searchPins(pins PinSearch) (float64, error) {
	switch pins {
	case PinSearchHillClimb:
		return s.HillClimbPins(), nil
	case PinSearchAnneal:
		return s.AnnealPins(s.NestedAnnealCycles)
	default:
		return s.Score(), nil
	}
}

// HillClimbLugsEscalating climbs with two-type changes, and only when those
// bring nothing, with three- and then four-type changes.
func (s *Searcher) HillClimbLugsEscalating(checkRules bool, pins PinSearch) (float64, error) {
	var score float64
	for level := 2; level <= 4; level++ {
		var err error
		if score, err = s.HillClimbLugs(level, checkRules, pins); err != nil {
			return score, err
		}
		if s.State.Improved || s.Stopped() {
			break
		}
	}
	return score, nil
}
