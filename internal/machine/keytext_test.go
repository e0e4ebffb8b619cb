package machine

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

func TestParseIndicator(t *testing.T) {
	ind, err := ParseIndicator("aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, [variant.Wheels]int{}, ind)

	ind, err = ParseIndicator("ZYXUSQ")
	require.NoError(t, err)
	assert.Equal(t, [variant.Wheels]int{25, 23, 22, 20, 18, 16}, ind)

	tests := []string{"AAAAA", "AWAAAA", "AAAAAR", "AAA1AA"}
	for _, s := range tests {
		_, err := ParseIndicator(s)
		assert.ErrorIs(t, err, ErrIndicator, s)
	}
}

func TestParsePinsFormats(t *testing.T) {
	letters := []string{"ABDHIKMNSTVW", "ADEGJKLORSUX", "ABGHJLMNRSTUX", "CEFHIMNPSTU", "BDEFHIJMNPS", "ABDHJKLMNPQ"}
	p, err := ParsePins(letters, [variant.Wheels]int{})
	require.NoError(t, err)
	assert.Equal(t, letters, FormatPins(&p))

	positional := FormatPinsPositional(&p)
	assert.Equal(t, "AB-D---HI-K-MN----ST-VW---", positional[0])
	for w, s := range positional {
		assert.Len(t, s, variant.WheelSizes[w])
	}

	q, err := ParsePins(positional, [variant.Wheels]int{})
	require.NoError(t, err)
	assert.Equal(t, p, q)
}

func TestParsePinsErrors(t *testing.T) {
	_, err := ParsePins([]string{"A", "B"}, [variant.Wheels]int{})
	assert.ErrorIs(t, err, ErrWheelCount)

	_, err = ParsePins([]string{"A", "W", "", "", "", ""}, [variant.Wheels]int{})
	assert.ErrorIs(t, err, ErrPinLetter, "wheel 2 has no W")

	_, err = ParsePins([]string{"AA", "", "", "", "", ""}, [variant.Wheels]int{})
	assert.ErrorIs(t, err, ErrPinLetter)

	_, err = ParsePins([]string{"", "", "", "", "", "R"}, [variant.Wheels]int{})
	assert.ErrorIs(t, err, ErrPinLetter, "wheel 6 ends at Q")
}

func TestParseLugs(t *testing.T) {
	tc, err := ParseLugs("1-0 0-2 2-1 3-6*2 6-0*3")
	require.NoError(t, err)
	assert.Equal(t, 1, tc[variant.TypeIndex(1, 0)])
	assert.Equal(t, 1, tc[variant.TypeIndex(2, 0)])
	assert.Equal(t, 1, tc[variant.TypeIndex(1, 2)])
	assert.Equal(t, 2, tc[variant.TypeIndex(3, 6)])
	assert.Equal(t, 3, tc[variant.TypeIndex(6, 0)])
	assert.Equal(t, 8, lugrules.Bars(&tc))
	assert.Equal(t, 0, tc[0])

	tests := []struct {
		name string
		in   string
	}{
		{name: "self pairing", in: "1-1"},
		{name: "empty bar", in: "0-0"},
		{name: "wheel out of range", in: "1-7"},
		{name: "missing dash", in: "12"},
		{name: "not a number", in: "a-b"},
		{name: "bad repeat", in: "1-0*0"},
		{name: "negative", in: "-1-0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLugs(tt.in)
			assert.ErrorIs(t, err, ErrBadLugToken)
		})
	}
}

func sortedTokens(s string) []string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return tokens
}

func TestLugTextRoundTrip(t *testing.T) {
	k := randomKey(t, variant.V1944, "ABC", "", 51)
	tc := k.TypeCount()
	text := FormatLugs(&tc)
	assert.Len(t, strings.Fields(text), variant.Bars)

	parsed, err := ParseLugs(text)
	require.NoError(t, err)
	assert.Equal(t, tc, parsed)
	assert.Equal(t, sortedTokens(text), sortedTokens(FormatLugs(&parsed)))
}

func TestCheckLugs(t *testing.T) {
	r := newRules(t, variant.V1944)

	tc, err := ParseLugs("1-0*26")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckLugs(r, &tc), ErrBarCount)

	tc, err = ParseLugs("1-0*27")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckLugs(r, &tc), ErrOverlap)

	// 27 bars, 2 overlaps, but kick counts 3,3,3,... are not in the catalog
	tc, err = ParseLugs("1-2 3-4 1-0*2 2-0*2 3-0*2 4-0*2 5-0*3 6-0*14")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckLugs(r, &tc), ErrLugRules)

	k := randomKey(t, variant.V1944, "ABC", "", 52)
	good := k.TypeCount()
	assert.NoError(t, CheckLugs(r, &good))
}

func TestKeyFileRoundTrip(t *testing.T) {
	k := randomKey(t, variant.V1944, "ABCDEFGHIJKLMNOP", "", 61)
	k.SetIndicator([variant.Wheels]int{1, 2, 3, 4, 5, 6})

	f := k.KeyFile()
	path := filepath.Join(t.TempDir(), "key.yaml")
	require.NoError(t, WriteKeyFile(path, &f))
	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, *loaded)

	k2, err := NewKeyFromFile(loaded, nil, "ABCDEFGHIJKLMNOP", "")
	require.NoError(t, err)
	assert.Equal(t, k.Pins(), k2.Pins())
	assert.Equal(t, k.TypeCount(), k2.TypeCount())
	assert.Equal(t, k.Slide(), k2.Slide())
	assert.Equal(t, k.Decryption(), k2.Decryption())
	assert.Equal(t, k.String(), k2.String())
}

func TestKeyFileErrors(t *testing.T) {
	k := randomKey(t, variant.V1944, "ABC", "", 71)
	f := k.KeyFile()
	before := k.String()

	wrongVersion := f
	wrongVersion.Version = variant.V1953
	assert.Error(t, k.Apply(&wrongVersion))

	badLugs := f
	badLugs.Lugs = "1-0*26"
	assert.ErrorIs(t, k.Apply(&badLugs), ErrBarCount)

	badSlide := f
	badSlide.Slide = 30
	assert.ErrorIs(t, k.Apply(&badSlide), ErrSlide)

	badIndicator := f
	badIndicator.Indicator = "WWWWWW"
	assert.ErrorIs(t, k.Apply(&badIndicator), ErrIndicator)

	assert.Equal(t, before, k.String(), "rejected files leave the key unchanged")

	_, err := ParseKeyFile([]byte("version: 1999\n"))
	assert.ErrorIs(t, err, variant.ErrUnknownVersion)
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "ABCDE FGHIJ KL", Group("ABCDEFGHIJKL", 5))
	assert.Equal(t, "ABC", Group("ABC", 0))
}
