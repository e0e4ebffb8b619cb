package lugrules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m209/internal/variant"
)

func TestSequenceCovers(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
		want bool
	}{
		{name: "binary weights", seq: Sequence{1, 1, 2, 4, 8, 16}, want: true},
		{name: "typical", seq: Sequence{1, 2, 3, 4, 8, 11}, want: true},
		{name: "no one", seq: Sequence{2, 2, 3, 5, 8, 10}, want: false},
		{name: "gap", seq: Sequence{1, 2, 3, 10, 10, 13}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seq.Covers())
		})
	}
}

func TestAllowedFilters(t *testing.T) {
	c1944 := variant.MustFor(variant.V1944)
	c1953 := variant.MustFor(variant.V1953)
	c1947 := variant.MustFor(variant.V1947)

	assert.True(t, Allowed(&c1944, Sequence{1, 2, 3, 4, 8, 11}))
	assert.False(t, Allowed(&c1944, Sequence{1, 2, 3, 4, 8, 10}), "one overlap is below the 1944 minimum")
	assert.False(t, Allowed(&c1944, Sequence{1, 3, 3, 3, 9, 11}), "three wheels share a kick count")
	assert.False(t, Allowed(&c1944, Sequence{1, 3, 5, 7, 9, 11}), "no even kick count")
	assert.False(t, Allowed(&c1944, Sequence{2, 2, 3, 5, 8, 10}), "1 is not reachable")
	assert.False(t, Allowed(&c1944, Sequence{1, 2, 3, 4, 14, 5}), "kick above the maximum")

	assert.False(t, Allowed(&c1953, Sequence{1, 2, 2, 4, 8, 12}), "1953 forbids equal kicks")
	assert.True(t, Allowed(&c1953, Sequence{1, 2, 3, 4, 8, 11}))

	assert.False(t, Allowed(&c1947, Sequence{1, 2, 3, 4, 8, 12}), "four even kicks")
	assert.True(t, Allowed(&c1947, Sequence{1, 2, 3, 4, 8, 11}))
}

func TestCompare(t *testing.T) {
	// fewer adjacent runs first
	assert.True(t, Less(Sequence{1, 2, 3, 4, 8, 11}, Sequence{1, 1, 3, 4, 8, 12}))
	// lower total next
	assert.True(t, Less(Sequence{1, 2, 3, 4, 8, 11}, Sequence{1, 2, 3, 4, 8, 12}))
	// positions 2-4 ascending
	assert.True(t, Less(Sequence{1, 2, 3, 4, 8, 11}, Sequence{1, 2, 4, 5, 7, 10}))
	// position 5 descending
	assert.True(t, Less(Sequence{1, 2, 3, 4, 9, 10}, Sequence{1, 2, 3, 4, 8, 11}))
	assert.Zero(t, Compare(Sequence{1, 2, 3, 4, 8, 11}, Sequence{1, 2, 3, 4, 8, 11}))
}

func TestGenerate(t *testing.T) {
	for _, v := range []variant.Version{variant.V1942, variant.V1943, variant.V1944, variant.V1947, variant.V1953} {
		t.Run(string(v), func(t *testing.T) {
			c := variant.MustFor(v)
			seqs := Generate(&c)
			require.NotEmpty(t, seqs)
			for i, s := range seqs {
				assert.True(t, Allowed(&c, s), "%v", s)
				if i > 0 {
					assert.LessOrEqual(t, Compare(seqs[i-1], s), 0, "catalog out of order at %d", i)
				}
			}
		})
	}

	c := variant.MustFor(variant.Unrestricted)
	assert.Nil(t, Generate(&c))
}

func TestParseCatalog(t *testing.T) {
	cat, err := LoadCatalog("testdata/published.yaml")
	require.NoError(t, err)
	assert.Len(t, cat.GroupA, 2)
	assert.Len(t, cat.GroupB, 2)
	assert.Equal(t, Sequence{1, 2, 3, 4, 8, 11}, cat.GroupB[0], "entries are sorted on load")

	seqs := cat.Sequences()
	assert.Equal(t, []Sequence{
		{1, 2, 3, 4, 8, 11},
		{1, 2, 4, 5, 7, 10},
		{1, 2, 3, 4, 8, 12},
	}, seqs)

	data, err := cat.Marshal()
	require.NoError(t, err)
	again, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, cat, again)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "short row", data: "group_a:\n  - [1, 2, 3]\n"},
		{name: "too few lugs", data: "group_a:\n  - [1, 1, 1, 1, 1, 1]\n"},
		{name: "negative", data: "group_b:\n  - [-1, 2, 3, 4, 8, 11]\n"},
		{name: "empty", data: "group_a: []\n"},
		{name: "not yaml", data: "group_a: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.ErrorIs(t, err, ErrBadCatalog)
		})
	}

	_, err := LoadCatalog("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestNewWithPublishedCatalog(t *testing.T) {
	cat, err := LoadCatalog("testdata/published.yaml")
	require.NoError(t, err)

	r, err := New(variant.MustFor(variant.V1944), cat)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains(Sequence{1, 2, 4, 5, 7, 10}))
	assert.False(t, r.Contains(Sequence{1, 2, 3, 4, 9, 10}), "generated but not published")
}

func TestNewEmptyCatalog(t *testing.T) {
	c := variant.MustFor(variant.V1944)
	c.MaxKick = 2
	_, err := New(c, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

// singles builds a type count with only single-lug bars.
func singles(counts ...int) TypeCount {
	var tc TypeCount
	for w, n := range counts {
		tc[variant.TypeIndex(w+1, 0)] = n
	}
	return tc
}

func TestProjections(t *testing.T) {
	tc := singles(1, 2, 3, 4, 8, 7)
	tc[variant.TypeIndex(6, 5)] = 2
	assert.Equal(t, 2, Overlaps(&tc))
	assert.Equal(t, 27, Bars(&tc))
	assert.Equal(t, Sequence{1, 2, 3, 4, 10, 9}, KickCounts(&tc))
}

func TestStructural(t *testing.T) {
	r := MustNew(variant.MustFor(variant.V1944))

	tc := singles(1, 2, 3, 4, 8, 7)
	tc[variant.TypeIndex(5, 6)] = 2
	assert.True(t, r.Structural(&tc))
	assert.True(t, r.TypeCountCompliant(&tc))

	neg := tc
	neg[1] = -1
	neg[2]++
	assert.False(t, r.Structural(&neg))

	slot0 := tc
	slot0[0] = 1
	slot0[1]--
	assert.False(t, r.Structural(&slot0))

	noOverlap := singles(1, 2, 3, 4, 8, 9)
	assert.False(t, r.Structural(&noOverlap), "1944 needs two overlaps")

	short := tc
	short[1]--
	assert.False(t, r.Structural(&short), "26 bars")
}

func TestZeroOverlapSetting(t *testing.T) {
	tc := singles(5, 5, 5, 4, 4, 4)
	require.Equal(t, 27, Bars(&tc))
	require.Zero(t, Overlaps(&tc))

	for _, v := range []variant.Version{variant.NoOverlap, variant.Unrestricted} {
		r := MustNew(variant.MustFor(v))
		require.Zero(t, r.Constraints().MinOverlap)
		assert.True(t, r.Structural(&tc), v)
		assert.True(t, r.TypeCountCompliant(&tc), v)
	}
}

func TestNonCatalogCompliance(t *testing.T) {
	r := MustNew(variant.MustFor(variant.NoOverlap))
	tc := singles(5, 5, 5, 4, 4, 3)
	assert.True(t, r.TypeCountCompliant(&tc), "NO_OVERLAP allows fewer than 27 bars")

	tc[variant.TypeIndex(1, 2)] = 1
	assert.False(t, r.TypeCountCompliant(&tc), "NO_OVERLAP forbids two-lug bars")

	sw := MustNew(variant.MustFor(variant.Swedish))
	full := singles(5, 5, 5, 4, 4, 3)
	full[variant.TypeIndex(1, 2)] = 1
	assert.True(t, sw.TypeCountCompliant(&full))
}
