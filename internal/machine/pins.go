// Package machine models the M-209: pin wheels, the lug cage and the key
// that drives decryption during the search.
package machine

import (
	"errors"
	"math/rand/v2"

	"m209/internal/variant"
)

// ErrRandomizeExhausted is returned when no random setting satisfying the
// constraints was found within the retry budget.
var ErrRandomizeExhausted = errors.New("random setting retry budget exhausted")

// maxRandomizeAttempts bounds the retry loops that draw random settings.
const maxRandomizeAttempts = 10000

// Pins holds the pin settings of all six wheels.
//
// Pins are stored in isomorphic order: iso[w][j] is the pin sensed at message
// position j (mod wheel size), so the indicator and the active pin offset
// are factored out. A Pins value is a snapshot; copying it is enough to save
// and restore a setting.
type Pins struct {
	iso       [variant.Wheels][variant.MaxWheelSize]bool
	indicator [variant.Wheels]int
}

// Get returns the pin sensed at message position pos of wheel w.
func (p *Pins) Get(w, pos int) bool {
	return p.iso[w][pos]
}

// Set sets the pin sensed at message position pos of wheel w.
func (p *Pins) Set(w, pos int, v bool) {
	p.iso[w][pos] = v
}

// Toggle flips one pin.
func (p *Pins) Toggle(w, pos int) {
	p.iso[w][pos] = !p.iso[w][pos]
}

// Inverse flips every pin of wheel w.
func (p *Pins) Inverse(w int) {
	for j := 0; j < variant.WheelSizes[w]; j++ {
		p.iso[w][j] = !p.iso[w][j]
	}
}

// InverseWheelBitmap inverts every wheel whose bit is set in bitmap.
func (p *Pins) InverseWheelBitmap(bitmap int) {
	for w := 0; w < variant.Wheels; w++ {
		if bitmap&(1<<w) != 0 {
			p.Inverse(w)
		}
	}
}

// Indicator returns the indicator letter position of wheel w.
func (p *Pins) Indicator(w int) int {
	return p.indicator[w]
}

// isoIndex maps a pin letter position to its isomorphic position.
func (p *Pins) isoIndex(w, letter int) int {
	size := variant.WheelSizes[w]
	return ((letter-p.indicator[w]-variant.ActivePinOffsets[w])%size + 2*size) % size
}

// Absolute returns the pin at letter position letter of wheel w.
func (p *Pins) Absolute(w, letter int) bool {
	return p.iso[w][p.isoIndex(w, letter)]
}

// SetAbsolute sets the pin at letter position letter of wheel w.
func (p *Pins) SetAbsolute(w, letter int, v bool) {
	p.iso[w][p.isoIndex(w, letter)] = v
}

// SetIndicator changes the indicator while keeping the absolute pin
// settings.
func (p *Pins) SetIndicator(indicator [variant.Wheels]int) {
	var abs [variant.Wheels][variant.MaxWheelSize]bool
	for w := 0; w < variant.Wheels; w++ {
		for l := 0; l < variant.WheelSizes[w]; l++ {
			abs[w][l] = p.Absolute(w, l)
		}
	}
	p.indicator = indicator
	for w := 0; w < variant.Wheels; w++ {
		for l := 0; l < variant.WheelSizes[w]; l++ {
			p.SetAbsolute(w, l, abs[w][l])
		}
	}
}

// WheelActiveCount returns the number of active pins on wheel w.
func (p *Pins) WheelActiveCount(w int) int {
	n := 0
	for j := 0; j < variant.WheelSizes[w]; j++ {
		if p.iso[w][j] {
			n++
		}
	}
	return n
}

// ActiveCount returns the number of active pins over all wheels.
func (p *Pins) ActiveCount() int {
	n := 0
	for w := 0; w < variant.Wheels; w++ {
		n += p.WheelActiveCount(w)
	}
	return n
}

// LongSeq reports whether the run of equal pins through pos on wheel w is
// longer than max. The wheel is circular.
func (p *Pins) LongSeq(w, pos, max int) bool {
	size := variant.WheelSizes[w]
	if max >= size {
		return false
	}
	v := p.iso[w][pos]
	run := 1
	right := 1
	for ; right < size; right++ {
		if p.iso[w][(pos+right)%size] != v {
			break
		}
		run++
		if run > max {
			return true
		}
	}
	for left := 1; left < size-right; left++ {
		if p.iso[w][(pos-left+size)%size] != v {
			break
		}
		run++
		if run > max {
			return true
		}
	}
	return false
}

// WheelRunsCompliant reports whether no run on wheel w is longer than max.
func (p *Pins) WheelRunsCompliant(w, max int) bool {
	for j := 0; j < variant.WheelSizes[w]; j++ {
		if p.LongSeq(w, j, max) {
			return false
		}
	}
	return true
}

// Compliant reports whether the pins satisfy both the active count bounds
// and the run length limit of c.
func (p *Pins) Compliant(c *variant.Constraints) bool {
	if !c.ActivePinsInBounds(p.ActiveCount(), variant.PinCount) {
		return false
	}
	for w := 0; w < variant.Wheels; w++ {
		if !p.WheelRunsCompliant(w, c.MaxConsecutiveSamePins) {
			return false
		}
	}
	return true
}

// Randomize draws random pins for wheel w until the wheel respects the run
// limit and the active percentage bounds of c. It retries a bounded number
// of times.
func (p *Pins) Randomize(w int, c *variant.Constraints, rng *rand.Rand) error {
	size := variant.WheelSizes[w]
	for attempt := 0; attempt < maxRandomizeAttempts; attempt++ {
		for j := 0; j < size; j++ {
			p.iso[w][j] = rng.IntN(2) == 1
		}
		// break long runs in place before giving up on this draw
		for j := 0; j < size; j++ {
			if p.LongSeq(w, j, c.MaxConsecutiveSamePins) {
				p.iso[w][j] = !p.iso[w][j]
			}
		}
		if p.WheelRunsCompliant(w, c.MaxConsecutiveSamePins) &&
			c.ActivePinsInBounds(p.WheelActiveCount(w), size) {
			return nil
		}
	}
	return ErrRandomizeExhausted
}

// RandomizeAll draws random pins for every wheel until the whole setting is
// compliant.
func (p *Pins) RandomizeAll(c *variant.Constraints, rng *rand.Rand) error {
	for attempt := 0; attempt < maxRandomizeAttempts; attempt++ {
		for w := 0; w < variant.Wheels; w++ {
			if err := p.Randomize(w, c, rng); err != nil {
				return err
			}
		}
		if c.ActivePinsInBounds(p.ActiveCount(), variant.PinCount) {
			return nil
		}
	}
	return ErrRandomizeExhausted
}
