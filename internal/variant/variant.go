package variant

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownVersion is returned for a machine version that has no
// constraint set.
var ErrUnknownVersion = errors.New("unknown machine version")

// Version names a machine version and with it a set of operating rules.
type Version string

const (
	V1942        Version = "1942"
	V1943        Version = "1943"
	V1944        Version = "1944"
	V1947        Version = "1947"
	V1953        Version = "1953"
	Swedish      Version = "SWEDISH"
	Unrestricted Version = "UNRESTRICTED"
	NoOverlap    Version = "NO_OVERLAP"
)

// Versions lists every supported version.
func Versions() []Version {
	return []Version{V1942, V1943, V1944, V1947, V1953, Swedish, Unrestricted, NoOverlap}
}

// ParseVersion accepts a version name case-insensitively.
func ParseVersion(s string) (Version, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for _, v := range Versions() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVersion, s)
}

// UnmarshalYAML lets versions be written as bare numbers (version: 1944).
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseVersion(node.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// EvenRule restricts how many of the six kick counts may be even.
type EvenRule int

const (
	EvenAny EvenRule = iota
	EvenTwoToFour
	EvenExactlyThree
)

// Allows reports whether evens even kick counts satisfy the rule.
func (r EvenRule) Allows(evens int) bool {
	switch r {
	case EvenTwoToFour:
		return evens >= 2 && evens <= 4
	case EvenExactlyThree:
		return evens == 3
	default:
		return true
	}
}

// Constraints bounds the keys a machine version may use. A Constraints value
// is built once per attack and only read afterwards.
type Constraints struct {
	Version Version

	// Bounds on the number of two-lug bars.
	MinOverlap int
	MaxOverlap int

	// Bounds on the number of lugs facing a single wheel.
	MinKick int
	MaxKick int

	NoTripleKicks   bool
	NoPairKicks     bool
	EvenRule        EvenRule
	RequireCoverage bool

	// UseCatalog enables lug count sequence catalog checks.
	UseCatalog bool

	// ExactBars requires every one of the 27 bars to carry a lug.
	ExactBars bool

	MaxConsecutiveSamePins int
	MinPercentActivePins   int
	MaxPercentActivePins   int
}

// For returns the constraint set of a version.
func For(v Version) (Constraints, error) {
	c := Constraints{
		Version:                v,
		MinKick:                1,
		MaxKick:                13,
		NoTripleKicks:          true,
		RequireCoverage:        true,
		UseCatalog:             true,
		ExactBars:              true,
		MaxConsecutiveSamePins: 6,
		MinPercentActivePins:   40,
		MaxPercentActivePins:   60,
	}
	switch v {
	case V1942:
		c.MinOverlap, c.MaxOverlap = 1, 14
	case V1943:
		c.MinOverlap, c.MaxOverlap = 1, 14
		c.EvenRule = EvenTwoToFour
	case V1944:
		c.MinOverlap, c.MaxOverlap = 2, 12
		c.EvenRule = EvenTwoToFour
	case V1947:
		c.MinOverlap, c.MaxOverlap = 2, 12
		c.EvenRule = EvenExactlyThree
	case V1953:
		c.MinOverlap, c.MaxOverlap = 2, 10
		c.NoPairKicks = true
		c.EvenRule = EvenTwoToFour
	case Swedish:
		c = relaxed(v, 1, 10)
		c.ExactBars = true
		c.MinPercentActivePins, c.MaxPercentActivePins = 30, 70
	case Unrestricted:
		c = relaxed(v, 0, Bars)
	case NoOverlap:
		c = relaxed(v, 0, 0)
	default:
		return Constraints{}, fmt.Errorf("%w: %q", ErrUnknownVersion, string(v))
	}
	return c, nil
}

// MustFor is For for versions known at compile time.
func MustFor(v Version) Constraints {
	c, err := For(v)
	if err != nil {
		panic(err)
	}
	return c
}

func relaxed(v Version, minOverlap, maxOverlap int) Constraints {
	return Constraints{
		Version:                v,
		MinOverlap:             minOverlap,
		MaxOverlap:             maxOverlap,
		MinKick:                0,
		MaxKick:                Bars,
		MaxConsecutiveSamePins: MaxWheelSize,
		MinPercentActivePins:   0,
		MaxPercentActivePins:   100,
	}
}

// ActivePinsInBounds reports whether count active pins out of total lies
// within the active percentage bounds.
func (c *Constraints) ActivePinsInBounds(count, total int) bool {
	return count*100 >= c.MinPercentActivePins*total && count*100 <= c.MaxPercentActivePins*total
}
