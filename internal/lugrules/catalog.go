package lugrules

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"m209/internal/variant"
)

// ErrBadCatalog is returned when a published catalog cannot be used.
var ErrBadCatalog = errors.New("invalid lug catalog")

// Catalog is a published table of legal kick count sequences, split in the
// two historical groups.
type Catalog struct {
	GroupA []Sequence `yaml:"group_a"`
	GroupB []Sequence `yaml:"group_b"`
}

// ParseCatalog decodes a YAML catalog. Each entry must list six kick counts
// adding up to more than 27 lugs; entries are sorted on load.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw struct {
		GroupA [][]int `yaml:"group_a"`
		GroupB [][]int `yaml:"group_b"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCatalog, err)
	}
	a, err := toSequences("group_a", raw.GroupA)
	if err != nil {
		return nil, err
	}
	b, err := toSequences("group_b", raw.GroupB)
	if err != nil {
		return nil, err
	}
	if len(a)+len(b) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrBadCatalog)
	}
	return &Catalog{GroupA: a, GroupB: b}, nil
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func toSequences(group string, rows [][]int) ([]Sequence, error) {
	out := make([]Sequence, 0, len(rows))
	for i, row := range rows {
		if len(row) != variant.Wheels {
			return nil, fmt.Errorf("%w: %s[%d] has %d values, want %d",
				ErrBadCatalog, group, i, len(row), variant.Wheels)
		}
		var s Sequence
		copy(s[:], row)
		for _, v := range s {
			if v < 0 || v > variant.Bars {
				return nil, fmt.Errorf("%w: %s[%d] kick %d out of range", ErrBadCatalog, group, i, v)
			}
		}
		s = s.Sorted()
		if s.Sum() < variant.Bars {
			return nil, fmt.Errorf("%w: %s[%d] has only %d lugs", ErrBadCatalog, group, i, s.Sum())
		}
		out = append(out, s)
	}
	return out, nil
}

// Sequences returns both groups merged, deduplicated and ordered by Compare.
func (c *Catalog) Sequences() []Sequence {
	all := append(slices.Clone(c.GroupA), c.GroupB...)
	slices.SortStableFunc(all, Compare)
	return slices.Compact(all)
}

// Marshal encodes the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	raw := struct {
		GroupA [][]int `yaml:"group_a,flow"`
		GroupB [][]int `yaml:"group_b,flow"`
	}{GroupA: toRows(c.GroupA), GroupB: toRows(c.GroupB)}
	return yaml.Marshal(raw)
}

func toRows(seqs []Sequence) [][]int {
	rows := make([][]int, len(seqs))
	for i, s := range seqs {
		rows[i] = slices.Clone(s[:])
	}
	return rows
}
