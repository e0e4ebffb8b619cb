package machine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

var (
	ErrWheelCount  = errors.New("expected one entry per wheel")
	ErrPinLetter   = errors.New("letter not on wheel")
	ErrIndicator   = errors.New("invalid indicator")
	ErrBadLugToken = errors.New("invalid lug bar")
	ErrBarCount    = errors.New("wrong number of bars")
	ErrOverlap     = errors.New("overlap count out of bounds")
	ErrLugRules    = errors.New("lug setting not allowed")
)

// FormatIndicator renders the indicator letters, e.g. "AAAAAA".
func FormatIndicator(p *Pins) string {
	b := make([]byte, variant.Wheels)
	for w := 0; w < variant.Wheels; w++ {
		b[w] = variant.WheelLetters[w][p.indicator[w]]
	}
	return string(b)
}

// ParseIndicator reads six indicator letters, one per wheel.
func ParseIndicator(s string) ([variant.Wheels]int, error) {
	var ind [variant.Wheels]int
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != variant.Wheels {
		return ind, fmt.Errorf("%w: %q has %d letters", ErrIndicator, s, len(s))
	}
	for w := 0; w < variant.Wheels; w++ {
		i := variant.LetterIndex(w, s[w])
		if i < 0 {
			return ind, fmt.Errorf("%w: %c is not on wheel %d", ErrIndicator, s[w], w+1)
		}
		ind[w] = i
	}
	return ind, nil
}

// FormatPins lists, per wheel, the letters of the active pins.
func FormatPins(p *Pins) []string {
	out := make([]string, variant.Wheels)
	for w := 0; w < variant.Wheels; w++ {
		var b strings.Builder
		for l := 0; l < variant.WheelSizes[w]; l++ {
			if p.Absolute(w, l) {
				b.WriteByte(variant.WheelLetters[w][l])
			}
		}
		out[w] = b.String()
	}
	return out
}

// FormatPinsPositional renders each wheel at fixed width: the letter of an
// active pin, '-' for an inactive one.
func FormatPinsPositional(p *Pins) []string {
	out := make([]string, variant.Wheels)
	for w := 0; w < variant.Wheels; w++ {
		b := []byte(variant.WheelLetters[w])
		for l := range b {
			if !p.Absolute(w, l) {
				b[l] = '-'
			}
		}
		out[w] = string(b)
	}
	return out
}

// ParsePins reads pin settings in either FormatPins or FormatPinsPositional
// form, relative to the given indicator.
func ParsePins(wheels []string, indicator [variant.Wheels]int) (Pins, error) {
	p := Pins{indicator: indicator}
	if len(wheels) != variant.Wheels {
		return p, fmt.Errorf("pins: %w: got %d", ErrWheelCount, len(wheels))
	}
	for w, s := range wheels {
		s = strings.ToUpper(strings.TrimSpace(s))
		if positional(w, s) {
			for l := 0; l < len(s); l++ {
				p.SetAbsolute(w, l, s[l] != '-')
			}
			continue
		}
		var seen [variant.MaxWheelSize]bool
		for i := 0; i < len(s); i++ {
			l := variant.LetterIndex(w, s[i])
			if l < 0 {
				return p, fmt.Errorf("pins: %w: %c on wheel %d", ErrPinLetter, s[i], w+1)
			}
			if seen[l] {
				return p, fmt.Errorf("pins: %w: %c repeated on wheel %d", ErrPinLetter, s[i], w+1)
			}
			seen[l] = true
			p.SetAbsolute(w, l, true)
		}
	}
	return p, nil
}

func positional(w int, s string) bool {
	letters := variant.WheelLetters[w]
	if len(s) != len(letters) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '-' && s[i] != letters[i] {
			return false
		}
	}
	return true
}

// FormatLugs renders one token per bar: "w-0" for a single lug facing wheel
// w, "a-b" (a < b) for a bar with lugs facing wheels a and b.
func FormatLugs(tc *lugrules.TypeCount) string {
	var tokens []string
	for i := 1; i < variant.TypeCountSize; i++ {
		t := variant.TypeOf(i)
		var tok string
		if t.IsPair() {
			tok = fmt.Sprintf("%d-%d", t.A, t.B)
		} else {
			tok = fmt.Sprintf("%d-0", t.A+t.B)
		}
		for n := 0; n < tc[i]; n++ {
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

// ParseLugs reads space-separated bar tokens "a-b" where 0 stands for no lug.
// A token may carry a repeat count, "1-0*3" being three bars.
func ParseLugs(s string) (lugrules.TypeCount, error) {
	var tc lugrules.TypeCount
	for _, tok := range strings.Fields(s) {
		body, repeat := tok, 1
		if i := strings.IndexByte(tok, '*'); i >= 0 {
			n, err := strconv.Atoi(tok[i+1:])
			if err != nil || n < 1 {
				return tc, fmt.Errorf("%w: %q", ErrBadLugToken, tok)
			}
			body, repeat = tok[:i], n
		}
		as, bs, ok := strings.Cut(body, "-")
		if !ok {
			return tc, fmt.Errorf("%w: %q", ErrBadLugToken, tok)
		}
		a, errA := strconv.Atoi(as)
		b, errB := strconv.Atoi(bs)
		if errA != nil || errB != nil || a < 0 || b < 0 || a > variant.Wheels || b > variant.Wheels {
			return tc, fmt.Errorf("%w: %q: wheel out of range", ErrBadLugToken, tok)
		}
		if a == b {
			return tc, fmt.Errorf("%w: %q: both lugs on the same wheel", ErrBadLugToken, tok)
		}
		tc[variant.TypeIndex(a, b)] += repeat
	}
	return tc, nil
}

// CheckLugs explains why the rules reject tc, or returns nil.
func CheckLugs(r *lugrules.Rules, tc *lugrules.TypeCount) error {
	c := r.Constraints()
	bars := lugrules.Bars(tc)
	if bars > variant.Bars || (c.ExactBars && bars != variant.Bars) {
		return fmt.Errorf("%w: %d", ErrBarCount, bars)
	}
	if o := lugrules.Overlaps(tc); o < c.MinOverlap || o > c.MaxOverlap {
		return fmt.Errorf("%w: %d not in %d..%d", ErrOverlap, o, c.MinOverlap, c.MaxOverlap)
	}
	if !r.TypeCountCompliant(tc) {
		kicks := lugrules.KickCounts(tc).Sorted()
		return fmt.Errorf("%w: kick counts %v for version %s", ErrLugRules, kicks, c.Version)
	}
	return nil
}

// String renders the key on one line: indicator, slide, pins and lugs.
func (k *Key) String() string {
	tc := k.lugs.typeCount
	return fmt.Sprintf("indicator=%s slide=%d pins=%s lugs=%s",
		FormatIndicator(&k.pins), k.slide,
		strings.Join(FormatPins(&k.pins), "/"), FormatLugs(&tc))
}
