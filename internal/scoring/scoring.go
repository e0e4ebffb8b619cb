// Package scoring evaluates candidate decryptions: by fit to English letter
// frequencies when only ciphertext is known, or by distance to a crib.
package scoring

import (
	"errors"
	"fmt"
	"strings"

	"m209/internal/variant"
)

// MaxCribScore is the crib score of a decryption matching every known crib
// letter.
const MaxCribScore = 5000 * variant.Letters

// ErrEmptyCrib is returned for a crib with no known letter.
var ErrEmptyCrib = errors.New("crib has no known letters")

// Kind identifies an evaluation mode.
type Kind int

const (
	KindMonogram Kind = iota
	KindCrib
)

func (k Kind) String() string {
	switch k {
	case KindMonogram:
		return "monogram"
	case KindCrib:
		return "crib"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "monogram" or "crib".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monogram":
		return KindMonogram, nil
	case "crib":
		return KindCrib, nil
	}
	return 0, fmt.Errorf("unknown evaluation kind %q", s)
}

// Evaluator scores a decryption given as letter indices. Higher is better.
// Evaluators are pure and safe for concurrent use.
type Evaluator interface {
	Score(decrypted []int) float64
	Kind() Kind
}

// Monogram scores by the average language weight of the decrypted letters.
type Monogram struct {
	weights [variant.Letters]float64
}

// NewMonogram builds a monogram evaluator from language statistics.
func NewMonogram(s *Stats) *Monogram {
	return &Monogram{weights: s.weights}
}

func (m *Monogram) Score(decrypted []int) float64 {
	if len(decrypted) == 0 {
		return 0
	}
	var counts [variant.Letters]int
	for _, p := range decrypted {
		counts[p]++
	}
	sum := 0.0
	for l, n := range counts {
		sum += m.weights[l] * float64(n)
	}
	return sum / float64(len(decrypted))
}

func (m *Monogram) Kind() Kind {
	return KindMonogram
}

// Crib scores by the circular letter distance between the decryption and
// the known plaintext, skipping unknown crib positions.
type Crib struct {
	crib  []int
	known int
}

// NewCrib builds a crib evaluator. Negative crib values mark unknown
// positions.
func NewCrib(crib []int) (*Crib, error) {
	known := 0
	for _, c := range crib {
		if c >= 0 {
			known++
		}
	}
	if known == 0 {
		return nil, ErrEmptyCrib
	}
	return &Crib{crib: crib, known: known}, nil
}

// Score returns 5000 times the mean closeness (26 minus circular distance)
// over known positions, so a full match scores MaxCribScore. It panics when
// called without a crib.
func (c *Crib) Score(decrypted []int) float64 {
	if c == nil || c.known == 0 {
		panic("scoring: crib evaluation without a crib")
	}
	sum := 0
	for i, want := range c.crib {
		if want < 0 {
			continue
		}
		d := decrypted[i] - want
		if d < 0 {
			d = -d
		}
		if d > variant.Letters-d {
			d = variant.Letters - d
		}
		sum += variant.Letters - d
	}
	return 5000 * float64(sum) / float64(c.known)
}

func (c *Crib) Kind() Kind {
	return KindCrib
}

// Known returns the number of known crib positions.
func (c *Crib) Known() int {
	return c.known
}
