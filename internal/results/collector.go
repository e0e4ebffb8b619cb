// Package results keeps the best candidate keys found by the attack
// workers, and optionally persists them.
package results

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"m209/internal/scoring"
)

// Result is one candidate key.
type Result struct {
	RunID      string    `json:"run_id"`
	Worker     int       `json:"worker"`
	Cycle      int       `json:"cycle"`
	Kind       string    `json:"kind"`
	Score      float64   `json:"score"`
	Key        string    `json:"key"`
	Decryption string    `json:"decryption"`
	Time       time.Time `json:"time"`
}

// Collector is a bounded list of the best results, highest score first.
// It is safe for concurrent use by all workers of a run.
//
// ShouldPushResult is a lock-free pre-check against the lowest score the
// collector would currently accept.
type Collector struct {
	mu         sync.Mutex
	capacity   int
	mode       scoring.Kind
	thresholds map[scoring.Kind]float64
	results    []Result
	seen       map[uint64]struct{}
	floor      atomic.Uint64
	onAccept   []func(Result)
}

// NewCollector returns a collector keeping up to capacity results.
func NewCollector(capacity int) *Collector {
	if capacity < 1 {
		capacity = 1
	}
	c := &Collector{
		capacity:   capacity,
		thresholds: make(map[scoring.Kind]float64),
		seen:       make(map[uint64]struct{}),
	}
	c.updateFloor()
	return c
}

// SetMode selects whose threshold applies.
func (c *Collector) SetMode(k scoring.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = k
	c.updateFloor()
}

// SetThreshold sets the minimum score accepted in mode k.
func (c *Collector) SetThreshold(k scoring.Kind, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds[k] = v
	c.updateFloor()
}

// OnAccept registers fn to be called, under the collector lock, with every
// accepted result.
func (c *Collector) OnAccept(fn func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAccept = append(c.onAccept, fn)
}

// ShouldPushResult reports whether a result with score could be accepted.
func (c *Collector) ShouldPushResult(score float64) bool {
	return score >= math.Float64frombits(c.floor.Load())
}

// PushResult offers a result with only score, key and decryption set.
func (c *Collector) PushResult(score float64, key, decryption string) bool {
	return c.Push(Result{Score: score, Key: key, Decryption: decryption})
}

// Push offers r. It is rejected when below the threshold, when the same key
// is already held, or when the collector is full of better results.
func (c *Collector) Push(r Result) bool {
	if !c.ShouldPushResult(r.Score) {
		return false
	}
	h := xxhash.Sum64String(r.Key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Score < c.thresholds[c.mode] {
		return false
	}
	if _, dup := c.seen[h]; dup {
		return false
	}
	if len(c.results) == c.capacity {
		worst := c.results[len(c.results)-1]
		if r.Score <= worst.Score {
			return false
		}
		delete(c.seen, xxhash.Sum64String(worst.Key))
		c.results = c.results[:len(c.results)-1]
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	if r.Kind == "" {
		r.Kind = c.mode.String()
	}
	i, _ := slices.BinarySearchFunc(c.results, r.Score, func(e Result, score float64) int {
		// descending
		switch {
		case e.Score > score:
			return -1
		case e.Score < score:
			return 1
		}
		return 0
	})
	c.results = slices.Insert(c.results, i, r)
	c.seen[h] = struct{}{}
	c.updateFloor()
	for _, fn := range c.onAccept {
		fn(r)
	}
	return true
}

// updateFloor recomputes the lowest acceptable score. Callers hold mu.
func (c *Collector) updateFloor() {
	floor := c.thresholds[c.mode]
	if len(c.results) == c.capacity {
		// a full collector only takes results beating its worst
		floor = math.Max(floor, math.Nextafter(c.results[len(c.results)-1].Score, math.Inf(1)))
	}
	c.floor.Store(math.Float64bits(floor))
}

// Results returns a copy of the held results, best first.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// Best returns the highest scoring result.
func (c *Collector) Best() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return Result{}, false
	}
	return c.results[0], true
}

// Len returns the number of held results.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
