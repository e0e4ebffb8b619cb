package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTypeIndexRoundTrip(t *testing.T) {
	seen := make(map[int]bool)
	for a := 0; a <= Wheels; a++ {
		for b := 0; b <= Wheels; b++ {
			if a == b {
				assert.Equal(t, 0, TypeIndex(a, b))
				continue
			}
			i := TypeIndex(a, b)
			require.Positive(t, i)
			require.Less(t, i, TypeCountSize)
			assert.Equal(t, i, TypeIndex(b, a), "pair order must not matter")
			seen[i] = true

			lt := TypeOf(i)
			assert.ElementsMatch(t, []int{a, b}, []int{lt.A, lt.B})
		}
	}
	assert.Len(t, seen, TypeCountSize-1)
	assert.Len(t, Types(), TypeCountSize-1)
}

func TestLugTypeCovers(t *testing.T) {
	single := TypeOf(TypeIndex(3, 0))
	assert.False(t, single.IsPair())
	assert.True(t, single.Covers(0b000100))
	assert.False(t, single.Covers(0b111011))

	pair := TypeOf(TypeIndex(2, 6))
	assert.True(t, pair.IsPair())
	assert.True(t, pair.Covers(0b000010))
	assert.True(t, pair.Covers(0b100000))
	assert.False(t, pair.Covers(0b011101))
}

func TestGeometry(t *testing.T) {
	total := 0
	for w := 0; w < Wheels; w++ {
		assert.Len(t, WheelLetters[w], WheelSizes[w])
		total += WheelSizes[w]
	}
	assert.Equal(t, PinCount, total)
	assert.Equal(t, -1, LetterIndex(1, 'W'), "wheel 2 has no W")
	assert.Equal(t, 22, LetterIndex(1, 'X'))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{in: "1944", want: V1944},
		{in: " swedish ", want: Swedish},
		{in: "no-overlap", want: NoOverlap},
		{in: "1999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownVersion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionYAML(t *testing.T) {
	var doc struct {
		Version Version `yaml:"version"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("version: 1947\n"), &doc))
	assert.Equal(t, V1947, doc.Version)

	assert.Error(t, yaml.Unmarshal([]byte("version: enigma\n"), &doc))
}

func TestForAllVersions(t *testing.T) {
	for _, v := range Versions() {
		c, err := For(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, c.Version)
		assert.LessOrEqual(t, c.MinOverlap, c.MaxOverlap)
		assert.LessOrEqual(t, c.MinPercentActivePins, c.MaxPercentActivePins)
	}
	assert.Zero(t, MustFor(NoOverlap).MaxOverlap)
	assert.False(t, MustFor(Unrestricted).UseCatalog)
	assert.True(t, MustFor(V1953).NoPairKicks)

	_, err := For("M-94")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestEvenRule(t *testing.T) {
	assert.True(t, EvenAny.Allows(0))
	assert.True(t, EvenTwoToFour.Allows(3))
	assert.False(t, EvenTwoToFour.Allows(5))
	assert.True(t, EvenExactlyThree.Allows(3))
	assert.False(t, EvenExactlyThree.Allows(2))
}

func TestActivePinsInBounds(t *testing.T) {
	c := MustFor(V1944)
	assert.True(t, c.ActivePinsInBounds(PinCount/2, PinCount))
	assert.False(t, c.ActivePinsInBounds(10, PinCount))
	assert.False(t, c.ActivePinsInBounds(PinCount, PinCount))
}
