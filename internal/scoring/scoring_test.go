package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func letters(s string) []int {
	out := make([]int, len(s))
	for i := range s {
		if s[i] == '?' {
			out[i] = -1
			continue
		}
		out[i] = int(s[i] - 'A')
	}
	return out
}

func TestCribFullMatch(t *testing.T) {
	c, err := NewCrib(letters("AAAA"))
	require.NoError(t, err)
	assert.Equal(t, float64(130000), c.Score(letters("AAAA")))
	assert.Equal(t, float64(MaxCribScore), c.Score(letters("AAAA")))
	assert.Equal(t, KindCrib, c.Kind())
}

func TestCribDistance(t *testing.T) {
	c, err := NewCrib(letters("AAAA"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		decrypted string
		want      float64
	}{
		{name: "one step", decrypted: "BAAA", want: 5000 * (25 + 26*3) / 4.0},
		{name: "wraps around", decrypted: "ZAAA", want: 5000 * (25 + 26*3) / 4.0},
		{name: "farthest", decrypted: "NNNN", want: 5000 * 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Score(letters(tt.decrypted)), 1e-9)
		})
	}
}

func TestCribSkipsUnknown(t *testing.T) {
	c, err := NewCrib(letters("A??A"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Known())
	assert.Equal(t, float64(MaxCribScore), c.Score(letters("AQRA")))
}

func TestCribWithoutKnownLetters(t *testing.T) {
	_, err := NewCrib(letters("????"))
	assert.ErrorIs(t, err, ErrEmptyCrib)

	_, err = NewCrib(nil)
	assert.ErrorIs(t, err, ErrEmptyCrib)

	var c *Crib
	assert.Panics(t, func() { c.Score(letters("AAAA")) })
}

func TestMonogram(t *testing.T) {
	s := English()
	m := NewMonogram(s)
	assert.Equal(t, KindMonogram, m.Kind())

	english := m.Score(letters("THEZENEMYZISZRETREATINGZTOZTHEZNORTH"))
	random := m.Score(letters("QJXKVQJWXKBQPJVXQKJWVXKQJ"))
	assert.Greater(t, english, random)

	assert.InDelta(t, s.Weight(4), m.Score(letters("EEEE")), 1e-9)
	assert.Zero(t, m.Score(nil))
}

func TestParseStats(t *testing.T) {
	s, err := ParseStats([]byte("language: test\nmonograms:\n  a: 1\n  B: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "test", s.Language)
	assert.Equal(t, 1.0, s.Weight(0))
	assert.Equal(t, 3.0, s.Weight(1))
	assert.Zero(t, s.Weight(2))

	bad := []string{
		"monograms:\n  AB: 1\n",
		"monograms:\n  A: -1\n",
		"monograms: {}\n",
		"monograms: [1, 2]\n",
	}
	for _, in := range bad {
		_, err := ParseStats([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestEnglishSpaceIsMostFrequent(t *testing.T) {
	s := English()
	assert.Equal(t, "english", s.Language)
	for l := 0; l < 25; l++ {
		assert.Greater(t, s.Weight(25), s.Weight(l))
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Crib")
	require.NoError(t, err)
	assert.Equal(t, KindCrib, k)
	assert.Equal(t, "monogram", KindMonogram.String())
	_, err = ParseKind("bigram")
	assert.Error(t, err)
}
