package search

import (
	"math"

	"m209/internal/machine"
	"m209/internal/variant"
)

// HillClimbPins improves the pins by strict hill climbing with four move
// kinds: single pin toggles, whole-wheel inversion, toggling two differing
// pins of a wheel, and inverting any subset of the six wheels. It repeats
// full passes until a pass brings no improvement, or runs one pass when
// State.SingleIteration is set. It returns the final score.
func (s *Searcher) HillClimbPins() float64 {
	return s.climbPins(s.State.SingleIteration)
}

func (s *Searcher) climbPins(single bool) float64 {
	cur := s.Score()
	for !s.Stopped() {
		var improved bool
		cur, improved = s.pinPass(cur, 0, true)
		if !improved || single {
			break
		}
	}
	return cur
}

// AnnealPins runs cycles of simulated annealing over the pins, each from a
// fresh random pin setting and ending with a strict climb to a local
// optimum. The best pins seen over all cycles are left in the key and their
// score returned.
func (s *Searcher) AnnealPins(cycles int) (float64, error) {
	if err := s.Schedule.Validate(); err != nil {
		return 0, err
	}
	best := math.Inf(-1)
	var bestPins machine.Pins
	found := false
	keep := func(score float64) {
		if score > best {
			best = score
			bestPins = s.Key.Pins()
			found = true
		}
	}

	for c := 0; c < cycles && !s.Stopped(); c++ {
		if err := s.Key.RandomizePins(s.Rng); err != nil {
			return 0, err
		}
		cur := s.Score()
		for t := s.Schedule.Start; t > s.Schedule.End && !s.Stopped(); t /= s.Schedule.Decrement {
			cur, _ = s.pinPass(cur, t, false)
			keep(cur)
		}
		keep(s.climbPins(false))
	}

	if !found {
		return s.Score(), nil
	}
	s.Key.SetPins(bestPins)
	return best, nil
}

// pinPass applies one round of the four pin move kinds. In strict mode a
// move is kept only if it improves the score; otherwise the acceptor
// decides at temperature t. Moves that break the active pin bounds or the
// run length limit are undone without scoring. It returns the current score
// and whether any kept move improved on the score before it.
func (s *Searcher) pinPass(cur, t float64, strict bool) (float64, bool) {
	k := s.Key
	improved := false
	accept := func(score float64) bool {
		if strict {
			return score > cur
		}
		return s.Acceptor.Accept(score, cur, t)
	}
	take := func(score float64) {
		if score > cur {
			improved = true
		}
		cur = score
	}

	for w := 0; w < variant.Wheels; w++ {
		for p := 0; p < variant.WheelSizes[w]; p++ {
			if s.Stopped() {
				return cur, improved
			}
			k.TogglePin(w, p)
			if k.LongSeq(w, p) || !k.PinCountCompliant() {
				k.TogglePin(w, p)
				continue
			}
			if score := s.Score(); accept(score) {
				take(score)
			} else {
				k.TogglePin(w, p)
			}
		}
	}

	for w := 0; w < variant.Wheels; w++ {
		k.InverseWheel(w)
		if !k.PinCountCompliant() {
			k.InverseWheel(w)
			continue
		}
		if score := s.Score(); accept(score) {
			take(score)
		} else {
			k.InverseWheel(w)
		}
	}

	for w := 0; w < variant.Wheels; w++ {
		size := variant.WheelSizes[w]
		for p1 := 0; p1 < size; p1++ {
			if s.Stopped() {
				return cur, improved
			}
			for p2 := p1 + 1; p2 < size; p2++ {
				// toggling two equal pins would change the wheel's count
				if k.Pin(w, p1) == k.Pin(w, p2) {
					continue
				}
				k.TogglePins(w, p1, p2)
				if k.LongSeq(w, p1) || k.LongSeq(w, p2) {
					k.TogglePins(w, p1, p2)
					continue
				}
				if score := s.Score(); accept(score) {
					take(score)
				} else {
					k.TogglePins(w, p1, p2)
				}
			}
		}
	}

	bestBitmap, bestScore := 0, math.Inf(-1)
	for bitmap := 1; bitmap < variant.VectorSize; bitmap++ {
		k.InverseWheelBitmap(bitmap)
		if k.PinCountCompliant() {
			if score := s.Score(); score > bestScore {
				bestBitmap, bestScore = bitmap, score
			}
		}
		k.InverseWheelBitmap(bitmap)
	}
	if bestBitmap != 0 && accept(bestScore) {
		k.InverseWheelBitmap(bestBitmap)
		take(bestScore)
	}
	return cur, improved
}
