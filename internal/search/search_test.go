package search

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m209/internal/lugrules"
	"m209/internal/machine"
	"m209/internal/scoring"
	"m209/internal/variant"
)

const plaintext = "THE ENEMY IS WITHDRAWING TO THE NORTH ALONG THE RIVER ROAD SEND TWO PATROLS AT FIRST LIGHT AND REPORT"

const plantedLugs = "1-0*3 2-0*4 3-0*3 4-0*5 5-0*4 6-0*3 1-3 2-5 3-6 4-6 1-5"

func rules(t *testing.T, v variant.Version) *lugrules.Rules {
	t.Helper()
	c, err := variant.For(v)
	require.NoError(t, err)
	r, err := lugrules.New(c, nil)
	require.NoError(t, err)
	return r
}

// plant returns a key bound to the encryption of plaintext under a random
// pin setting and plantedLugs, with the crib set to the plaintext.
func plant(t *testing.T, v variant.Version, seed uint64) *machine.Key {
	t.Helper()
	r := rules(t, v)
	rng := rand.New(rand.NewPCG(seed, 99))

	enc := machine.NewSetting(r)
	tc, err := machine.ParseLugs(plantedLugs)
	require.NoError(t, err)
	require.True(t, enc.SetTypeCount(tc, false))
	require.NoError(t, enc.RandomizePins(rng))
	require.NoError(t, enc.SetSlide(3))
	ciphertext, err := enc.EncryptDecrypt(plaintext, true)
	require.NoError(t, err)

	k, err := machine.NewKey(r, ciphertext, plaintext)
	require.NoError(t, err)
	k.SetPins(enc.Pins())
	k.SetLugs(enc.Lugs())
	require.NoError(t, k.SetSlide(3))
	return k
}

func cribSearcher(t *testing.T, k *machine.Key, opts ...Option) *Searcher {
	t.Helper()
	eval, err := scoring.NewCrib(k.Crib())
	require.NoError(t, err)
	return New(k, eval, rand.New(rand.NewPCG(5, 6)), opts...)
}

func TestPlantedKeyScoresMaximum(t *testing.T) {
	k := plant(t, variant.Unrestricted, 1)
	s := cribSearcher(t, k)
	assert.Equal(t, float64(scoring.MaxCribScore), s.Score())
	assert.Equal(t, int64(1), s.Evaluations())
}

func TestHillClimbPinsRepairsToggle(t *testing.T) {
	k := plant(t, variant.Unrestricted, 2)
	s := cribSearcher(t, k)

	k.TogglePin(0, 0)
	k.TogglePin(3, 4)
	before := s.Score()

	after := s.HillClimbPins()
	assert.GreaterOrEqual(t, after, before)
	assert.Equal(t, after, s.Score(), "the key holds the returned score")
}

func TestHillClimbPinsFirstMoveRestores(t *testing.T) {
	k := plant(t, variant.Unrestricted, 3)
	s := cribSearcher(t, k)

	// (0, 0) is the first move tried, so the climb undoes it at once
	k.TogglePin(0, 0)
	assert.Equal(t, float64(scoring.MaxCribScore), s.HillClimbPins())
}

func TestHillClimbPinsKeepsCompliance(t *testing.T) {
	k := plant(t, variant.V1944, 4)
	s := cribSearcher(t, k)
	require.NoError(t, k.RandomizePins(s.Rng))

	s.State.SingleIteration = true
	s.HillClimbPins()
	pins := k.Pins()
	assert.True(t, pins.Compliant(k.Constraints()))
}

func TestHillClimbLugsImproves(t *testing.T) {
	k := plant(t, variant.Unrestricted, 5)
	s := cribSearcher(t, k)

	tc := k.TypeCount()
	tc[variant.TypeIndex(4, 0)]--
	tc[variant.TypeIndex(1, 0)]++
	require.True(t, k.SetTypeCount(tc, false))
	before := s.Score()
	require.Less(t, before, float64(scoring.MaxCribScore))

	after, err := s.HillClimbLugs(2, false, PinSearchNone)
	require.NoError(t, err)
	assert.True(t, s.State.Improved)
	assert.Greater(t, after, before)
	assert.Equal(t, after, s.Score())

	got := k.TypeCount()
	assert.Equal(t, variant.Bars, lugrules.Bars(&got))
}

func TestHillClimbLugsQuick(t *testing.T) {
	k := plant(t, variant.Unrestricted, 6)
	s := cribSearcher(t, k)

	tc := k.TypeCount()
	tc[variant.TypeIndex(2, 0)] -= 2
	tc[variant.TypeIndex(6, 0)] += 2
	require.True(t, k.SetTypeCount(tc, false))
	before := s.Score()

	s.State.Quick = true
	after, err := s.HillClimbLugs(2, false, PinSearchNone)
	require.NoError(t, err)
	assert.True(t, s.State.Improved)
	assert.Greater(t, after, before)
}

func TestHillClimbLugsNoImprovementAtOptimum(t *testing.T) {
	k := plant(t, variant.Unrestricted, 7)
	s := cribSearcher(t, k)
	tc := k.TypeCount()

	score, err := s.HillClimbLugsEscalating(false, PinSearchNone)
	require.NoError(t, err)
	assert.False(t, s.State.Improved)
	assert.Equal(t, float64(scoring.MaxCribScore), score)
	assert.Equal(t, tc, k.TypeCount(), "rejected changes are rolled back")
}

func TestHillClimbLugsRespectsRules(t *testing.T) {
	k := plant(t, variant.V1944, 8)
	s := cribSearcher(t, k)
	require.NoError(t, k.RandomizeLugs(s.Rng))

	_, err := s.HillClimbLugs(2, true, PinSearchNone)
	require.NoError(t, err)
	tc := k.TypeCount()
	assert.True(t, k.Rules().TypeCountCompliant(&tc))

	_, err = s.HillClimbLugs(5, true, PinSearchNone)
	assert.Error(t, err)
}

func TestAnnealPinsRestoresBest(t *testing.T) {
	k := plant(t, variant.V1944, 9)
	s := cribSearcher(t, k, WithSchedule(Schedule{Start: 2000, End: 500, Decrement: 2}))

	score, err := s.AnnealPins(2)
	require.NoError(t, err)
	assert.Equal(t, score, s.Score())
	pins := k.Pins()
	assert.True(t, pins.Compliant(k.Constraints()))
}

func TestAnnealPinsBadSchedule(t *testing.T) {
	k := plant(t, variant.Unrestricted, 10)
	s := cribSearcher(t, k, WithSchedule(Schedule{Start: 1, End: 2, Decrement: 2}))
	_, err := s.AnnealPins(1)
	assert.ErrorIs(t, err, ErrBadSchedule)
}

func TestStopFlag(t *testing.T) {
	var stop atomic.Bool
	k := plant(t, variant.Unrestricted, 11)
	s := cribSearcher(t, k, WithStop(&stop))
	stop.Store(true)

	tc := k.TypeCount()
	tc[variant.TypeIndex(4, 0)]--
	tc[variant.TypeIndex(1, 0)]++
	require.True(t, k.SetTypeCount(tc, false))

	_, err := s.HillClimbLugs(2, false, PinSearchNone)
	require.NoError(t, err)
	assert.False(t, s.State.Improved)
	assert.Equal(t, tc, k.TypeCount())

	score, err := s.AnnealPins(3)
	require.NoError(t, err)
	assert.Equal(t, score, s.Score())
}

func TestSharedCounter(t *testing.T) {
	var counter atomic.Int64
	k := plant(t, variant.Unrestricted, 12)
	s := cribSearcher(t, k, WithCounter(&counter))
	for i := 0; i < flushEvery+10; i++ {
		s.Score()
	}
	assert.Equal(t, int64(flushEvery), counter.Load())
	s.Flush()
	assert.Equal(t, int64(flushEvery+10), counter.Load())
}

func TestRecordAndRestore(t *testing.T) {
	k := plant(t, variant.Unrestricted, 13)
	s := cribSearcher(t, k)
	assert.True(t, s.Record(s.Score()))
	assert.False(t, s.Record(s.State.BestScore))

	require.NoError(t, k.RandomizePins(s.Rng))
	require.NoError(t, k.RandomizeLugs(s.Rng))
	s.RestoreBest()
	assert.Equal(t, float64(scoring.MaxCribScore), s.Score())
}

func TestMetropolis(t *testing.T) {
	m := Metropolis{Rng: rand.New(rand.NewPCG(1, 1))}
	assert.True(t, m.Accept(2, 1, 0))
	assert.False(t, m.Accept(1, 2, 0))
	assert.False(t, m.Accept(0, 1e6, 1))

	accepted := 0
	for i := 0; i < 1000; i++ {
		if m.Accept(0.9, 1, 1e6) {
			accepted++
		}
	}
	assert.Greater(t, accepted, 990)
}

func TestSchedule(t *testing.T) {
	assert.Equal(t, 2, Schedule{Start: 1, End: 0.05, Decrement: 10}.Steps())
	assert.NoError(t, Schedule{Start: 1, End: 0.01, Decrement: 1.1}.Validate())
	assert.ErrorIs(t, Schedule{Start: 1, End: 0.01, Decrement: 1}.Validate(), ErrBadSchedule)
}
