// Package search holds the local search operators over an M-209 key: hill
// climbing over lugs and pins, and simulated annealing over pins.
//
// A Searcher is owned by one worker goroutine. The only state it shares is
// the stop flag and the run's evaluation counter, both atomic.
package search

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"m209/internal/lugrules"
	"m209/internal/machine"
	"m209/internal/scoring"
)

// ErrBadSchedule is returned for an annealing schedule that never ends.
var ErrBadSchedule = errors.New("invalid annealing schedule")

// flushEvery is how many evaluations a Searcher counts locally before
// adding them to the shared counter.
const flushEvery = 4096

// LocalState is a worker's scratch state.
type LocalState struct {
	BestScore     float64
	BestPins      machine.Pins
	BestTypeCount lugrules.TypeCount

	// Improved is set by the last lug hill climb when it kept a change.
	Improved bool

	// SingleIteration makes HillClimbPins run one pass only.
	SingleIteration bool

	// Quick makes HillClimbLugs return at the first improvement.
	Quick bool
}

// Reset clears the best score so the next Record always wins.
func (s *LocalState) Reset() {
	s.BestScore = math.Inf(-1)
	s.Improved = false
}

// Schedule is a geometric annealing schedule: the temperature starts at
// Start and is divided by Decrement until it falls to End or below.
type Schedule struct {
	Start     float64 `yaml:"start_temperature" validate:"gt=0"`
	End       float64 `yaml:"end_temperature" validate:"gt=0"`
	Decrement float64 `yaml:"decrement" validate:"gt=1"`
}

// Validate checks the schedule terminates.
func (s Schedule) Validate() error {
	if s.Start <= 0 || s.End <= 0 || s.Decrement <= 1 || s.End > s.Start {
		return fmt.Errorf("%w: start %g end %g decrement %g", ErrBadSchedule, s.Start, s.End, s.Decrement)
	}
	return nil
}

// Steps returns the number of temperature steps in the schedule.
func (s Schedule) Steps() int {
	n := 0
	for t := s.Start; t > s.End; t /= s.Decrement {
		n++
	}
	return n
}

// Acceptor decides whether a move to newScore is taken at a temperature.
type Acceptor interface {
	Accept(newScore, currentScore, temperature float64) bool
}

// Metropolis accepts every improvement, and a worse score with probability
// exp((new - current) / temperature).
type Metropolis struct {
	Rng *rand.Rand
}

func (m Metropolis) Accept(newScore, currentScore, temperature float64) bool {
	if newScore > currentScore {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return m.Rng.Float64() < math.Exp((newScore-currentScore)/temperature)
}

// PinSearch selects the pin search run after each lug change.
type PinSearch int

const (
	PinSearchNone PinSearch = iota
	PinSearchHillClimb
	PinSearchAnneal
)

func (p PinSearch) String() string {
	switch p {
	case PinSearchNone:
		return "none"
	case PinSearchHillClimb:
		return "hillclimb"
	case PinSearchAnneal:
		return "anneal"
	default:
		return fmt.Sprintf("PinSearch(%d)", int(p))
	}
}

// Searcher runs search operators over one key.
type Searcher struct {
	Key      *machine.Key
	Eval     scoring.Evaluator
	Rng      *rand.Rand
	Acceptor Acceptor
	Schedule Schedule

	// NestedAnnealCycles is the cycle count of the annealing run after a lug
	// change when the pin search is PinSearchAnneal.
	NestedAnnealCycles int

	State LocalState

	stop        *atomic.Bool
	shared      *atomic.Int64
	evaluations int64
	pending     int64
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithStop shares a stop flag, checked inside every loop.
func WithStop(stop *atomic.Bool) Option {
	return func(s *Searcher) {
		s.stop = stop
	}
}

// WithCounter shares an evaluation counter across searchers.
func WithCounter(c *atomic.Int64) Option {
	return func(s *Searcher) {
		s.shared = c
	}
}

// WithSchedule sets the annealing schedule.
func WithSchedule(sc Schedule) Option {
	return func(s *Searcher) {
		s.Schedule = sc
	}
}

// WithAcceptor replaces the Metropolis acceptor.
func WithAcceptor(a Acceptor) Option {
	return func(s *Searcher) {
		s.Acceptor = a
	}
}

// New returns a Searcher over key scored by eval.
func New(key *machine.Key, eval scoring.Evaluator, rng *rand.Rand, opts ...Option) *Searcher {
	s := &Searcher{
		Key:                key,
		Eval:               eval,
		Rng:                rng,
		Acceptor:           Metropolis{Rng: rng},
		Schedule:           Schedule{Start: 1, End: 0.01, Decrement: 1.1},
		NestedAnnealCycles: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.State.Reset()
	return s
}

// Score evaluates the key's current decryption.
func (s *Searcher) Score() float64 {
	s.evaluations++
	s.pending++
	if s.pending >= flushEvery {
		s.Flush()
	}
	return s.Eval.Score(s.Key.Decryption())
}

// Flush adds locally counted evaluations to the shared counter.
func (s *Searcher) Flush() {
	if s.shared != nil && s.pending > 0 {
		s.shared.Add(s.pending)
	}
	s.pending = 0
}

// Evaluations returns the number of evaluations made by this searcher.
func (s *Searcher) Evaluations() int64 {
	return s.evaluations
}

// Stopped reports whether the shared stop flag is set.
func (s *Searcher) Stopped() bool {
	return s.stop != nil && s.stop.Load()
}

// Record stores the key in the local state if score beats the best so far.
func (s *Searcher) Record(score float64) bool {
	if score <= s.State.BestScore {
		return false
	}
	s.State.BestScore = score
	s.State.BestPins = s.Key.Pins()
	s.State.BestTypeCount = s.Key.TypeCount()
	return true
}

// RestoreBest puts the local best setting back into the key.
func (s *Searcher) RestoreBest() {
	s.Key.SetPins(s.State.BestPins)
	s.Key.SetLugs(machine.NewLugs(s.State.BestTypeCount))
}
