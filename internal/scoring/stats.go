package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"m209/internal/variant"
)

//go:embed data/english.yaml
var englishYAML []byte

// ErrBadStats is returned for unusable language statistics.
var ErrBadStats = errors.New("invalid language statistics")

// Stats holds monogram weights of a language, indexed by letter.
type Stats struct {
	Language string
	weights  [variant.Letters]float64
}

type statsFile struct {
	Language  string             `yaml:"language"`
	Monograms map[string]float64 `yaml:"monograms"`
}

// ParseStats decodes YAML statistics: a language name and a map from
// letter to weight. Letters left out weigh zero.
func ParseStats(data []byte) (*Stats, error) {
	var f statsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	s := &Stats{Language: f.Language}
	total := 0.0
	for key, w := range f.Monograms {
		letter := strings.ToUpper(strings.TrimSpace(key))
		if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
			return nil, fmt.Errorf("%w: key %q is not a letter", ErrBadStats, key)
		}
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight for %s", ErrBadStats, letter)
		}
		s.weights[letter[0]-'A'] = w
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrBadStats)
	}
	return s, nil
}

// LoadStats reads YAML statistics from path.
func LoadStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats %s: %w", path, err)
	}
	return ParseStats(data)
}

// English returns the built-in English statistics.
func English() *Stats {
	s, err := ParseStats(englishYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// Weight returns the weight of letter l (0-25).
func (s *Stats) Weight(l int) float64 {
	return s.weights[l]
}
