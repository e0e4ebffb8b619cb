package attack

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"m209/internal/results"
	"m209/internal/scoring"
	"m209/internal/search"
)

// Sink receives candidate keys from the workers.
type Sink interface {
	ShouldPushResult(score float64) bool
	Push(r results.Result) bool
}

// Worker is one search thread. It owns its key, generator and searcher; the
// sink and reporter are shared.
type Worker struct {
	ID       int
	RunID    string
	Config   *Config
	Searcher *search.Searcher
	Sink     Sink
	Reporter Reporter
}

func (w *Worker) mode() string {
	return w.Searcher.Eval.Kind().String()
}

// publish records score in the local state and offers the key to the sink.
func (w *Worker) publish(cycle int, score float64) {
	s := w.Searcher
	if s.Record(score) {
		w.Reporter.Log(fmt.Sprintf("cycle %d: new best %.3f", cycle, score), SeverityDebug)
	}
	if !w.Sink.ShouldPushResult(score) {
		return
	}
	w.Sink.Push(results.Result{
		RunID:      w.RunID,
		Worker:     w.ID,
		Cycle:      cycle,
		Kind:       w.mode(),
		Score:      score,
		Key:        s.Key.String(),
		Decryption: s.Key.Plaintext(),
		Time:       time.Now(),
	})
}

func (w *Worker) cycleSpan(ctx context.Context, name string, cycle int) trace.Span {
	_, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("worker", w.ID),
		attribute.Int("cycle", cycle),
	))
	return span
}

// CiphertextOnly runs the ciphertext-only search: per cycle, the best of
// random lug settings, then rounds of a pin search followed by a two-type
// lug climb, with three- and four-type lug climbs in every round where
// neither improved. Rounds repeat while they improve.
func (w *Worker) CiphertextOnly(ctx context.Context) error {
	s, k := w.Searcher, w.Searcher.Key
	cfg := &w.Config.CiphertextOnly
	pinSearch := parsePinSearch(cfg.PinSearch)
	checkRules := w.Config.CheckRules

	for cycle := 0; w.Config.Cycles == 0 || cycle < w.Config.Cycles; cycle++ {
		if s.Stopped() {
			return nil
		}
		span := w.cycleSpan(ctx, "attack.ciphertext_only.cycle", cycle)
		restartsTotal.WithLabelValues(w.mode()).Inc()

		if err := k.RandomizePins(s.Rng); err != nil {
			span.End()
			return err
		}
		s.State.Reset()
		for trial := 0; trial < cfg.RandomTrials && !s.Stopped(); trial++ {
			if err := k.RandomizeLugs(s.Rng); err != nil {
				span.End()
				return err
			}
			s.Record(s.Score())
			w.Reporter.Progress("ciphertext-only", "random trials", trial+1, cfg.RandomTrials)
		}
		if math.IsInf(s.State.BestScore, -1) {
			span.End()
			return nil
		}
		s.RestoreBest()
		cur := s.State.BestScore
		w.publish(cycle, cur)

		for round := 0; !s.Stopped(); round++ {
			improved := false

			score, err := w.climbPins(cfg.AnnealCycles, cur)
			if err != nil {
				span.End()
				return err
			}
			if score > cur {
				improved = true
			}
			cur = score

			if cur, err = s.HillClimbLugs(2, checkRules, pinSearch); err != nil {
				span.End()
				return err
			}
			improved = improved || s.State.Improved

			if !improved {
				for _, level := range []int{3, 4} {
					if cur, err = s.HillClimbLugs(level, checkRules, pinSearch); err != nil {
						span.End()
						return err
					}
					improved = improved || s.State.Improved
				}
			}
			w.publish(cycle, cur)
			w.Reporter.Progress("ciphertext-only", "hill climbing", round+1, 0)
			if !improved {
				break
			}
		}
		span.SetAttributes(attribute.Float64("score", cur))
		span.End()
	}
	return nil
}

// climbPins runs the pin phase of a ciphertext-only round. Annealing
// restarts from random pins, so a worse outcome is undone.
func (w *Worker) climbPins(annealCycles int, cur float64) (float64, error) {
	s := w.Searcher
	if annealCycles == 0 {
		return s.HillClimbPins(), nil
	}
	before := s.Key.Pins()
	score, err := s.AnnealPins(annealCycles)
	if err != nil {
		return 0, err
	}
	if score < cur {
		s.Key.SetPins(before)
		return cur, nil
	}
	return score, nil
}

// KnownPlaintext runs the known-plaintext search. Each cycle starts from the
// best of random keys and alternates escalating lug climbs (with a pin
// search after each lug change) and pin climbs. The cycle's best setting is
// kept in the searcher's local state. When a round brings no improvement
// the key is reset to it, and the stagnation
// ladder applies: a deep annealing search first, then fresh random pins
// each round, with a quick single-pass lug climb every QuickEvery rounds.
// It returns true once a key matching the whole crib is found.
func (w *Worker) KnownPlaintext(ctx context.Context) (bool, error) {
	s := w.Searcher
	cfg := &w.Config.KnownPlaintext
	pinSearch := parsePinSearch(cfg.PinSearch)
	checkRules := w.Config.CheckRules

	for cycle := 0; w.Config.Cycles == 0 || cycle < w.Config.Cycles; cycle++ {
		if s.Stopped() {
			return false, nil
		}
		span := w.cycleSpan(ctx, "attack.known_plaintext.cycle", cycle)
		restartsTotal.WithLabelValues(w.mode()).Inc()

		found, err := w.knownPlaintextCycle(cycle, cfg, pinSearch, checkRules)
		span.SetAttributes(attribute.Bool("found", found))
		span.End()
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

func (w *Worker) knownPlaintextCycle(cycle int, cfg *KnownPlaintextConfig, pinSearch search.PinSearch, checkRules bool) (bool, error) {
	s, k := w.Searcher, w.Searcher.Key

	s.State.Reset()
	for trial := 0; trial < cfg.RandomTrials && !s.Stopped(); trial++ {
		if err := k.RandomizeLugs(s.Rng); err != nil {
			return false, err
		}
		if err := k.RandomizePins(s.Rng); err != nil {
			return false, err
		}
		s.Record(s.Score())
		w.Reporter.Progress("known-plaintext", "random trials", trial+1, cfg.RandomTrials)
	}
	if math.IsInf(s.State.BestScore, -1) {
		return false, nil
	}
	s.RestoreBest()
	w.publish(cycle, s.HillClimbPins())

	for stagnation := 0; stagnation < cfg.MaxStagnation && !s.Stopped(); {
		if s.State.BestScore >= scoring.MaxCribScore {
			break
		}
		quick := stagnation > 0 && stagnation%cfg.QuickEvery == 0
		s.State.Quick, s.State.SingleIteration = quick, quick
		var err error
		if quick {
			_, err = s.HillClimbLugs(2, checkRules, pinSearch)
		} else {
			_, err = s.HillClimbLugsEscalating(checkRules, pinSearch)
		}
		s.State.Quick, s.State.SingleIteration = false, false
		if err != nil {
			return false, err
		}

		if score := s.HillClimbPins(); score > s.State.BestScore {
			stagnation = 0
			w.publish(cycle, score)
			continue
		}

		stagnation++
		s.RestoreBest()
		w.Reporter.Progress("known-plaintext", "stagnation", stagnation, cfg.MaxStagnation)

		if stagnation == 1 {
			deep, err := s.AnnealPins(cfg.DeepAnnealCycles)
			if err != nil {
				return false, err
			}
			if deep > s.State.BestScore {
				stagnation = 0
				w.publish(cycle, deep)
			} else {
				s.RestoreBest()
			}
			continue
		}
		if err := k.RandomizePins(s.Rng); err != nil {
			return false, err
		}
		s.HillClimbPins()
	}

	if s.State.BestScore >= scoring.MaxCribScore {
		s.RestoreBest()
		w.Reporter.Log(fmt.Sprintf("key found in cycle %d", cycle), SeverityInfo)
		return true, nil
	}
	return false, nil
}
