package attack

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"m209/internal/lugrules"
	"m209/internal/machine"
	"m209/internal/results"
	"m209/internal/scoring"
	"m209/internal/search"
	"m209/internal/variant"
)

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Mode        scoring.Kind
	Evaluations int64
	Elapsed     time.Duration
	Found       bool
	Stopped     bool
	Best        results.Result
	HasBest     bool
}

// Manager runs one attack over several workers. The configuration, rules
// and statistics are loaded once and shared read-only; each worker builds
// its own key and generator.
type Manager struct {
	cfg       Config
	rules     *lugrules.Rules
	stats     *scoring.Stats
	collector *results.Collector
	store     *results.Store
	reporter  Reporter
	logger    *slog.Logger
	runID     string
	seed      uint64

	stop        atomic.Bool
	userStop    atomic.Bool
	found       atomic.Bool
	evaluations atomic.Int64
	best        float64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithReporter replaces the slog progress reporter.
func WithReporter(r Reporter) Option {
	return func(m *Manager) {
		m.reporter = r
	}
}

// WithStore saves every accepted result to store.
func WithStore(store *results.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithStats replaces the monogram statistics.
func WithStats(stats *scoring.Stats) Option {
	return func(m *Manager) {
		m.stats = stats
	}
}

// NewManager validates cfg and loads the rules, catalog and statistics.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:    cfg,
		logger: slog.Default(),
		runID:  uuid.NewString(),
		seed:   cfg.Seed,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.seed == 0 {
		m.seed = rand.Uint64()
	}
	m.logger = m.logger.With(slog.String("run_id", m.runID))
	if m.reporter == nil {
		m.reporter = NewSlogReporter(m.logger, cfg.ProgressInterval)
	}

	var catalog *lugrules.Catalog
	if cfg.CatalogFile != "" {
		var err error
		if catalog, err = lugrules.LoadCatalog(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}
	constraints, err := variant.For(cfg.Version)
	if err != nil {
		return nil, err
	}
	if m.rules, err = lugrules.New(constraints, catalog); err != nil {
		return nil, err
	}

	if m.stats == nil {
		if cfg.StatsFile != "" {
			if m.stats, err = scoring.LoadStats(cfg.StatsFile); err != nil {
				return nil, err
			}
		} else {
			m.stats = scoring.English()
		}
	}

	m.collector = results.NewCollector(cfg.ResultsCapacity)
	m.collector.SetThreshold(scoring.KindMonogram, cfg.CiphertextOnly.Threshold)
	m.collector.SetThreshold(scoring.KindCrib, cfg.KnownPlaintext.Threshold)
	m.collector.OnAccept(m.accepted)
	return m, nil
}

// accepted runs under the collector lock for every accepted result.
func (m *Manager) accepted(r results.Result) {
	resultsAcceptedTotal.WithLabelValues(r.Kind).Inc()
	if r.Score > m.best {
		m.best = r.Score
		bestScore.WithLabelValues(r.Kind).Set(r.Score)
		m.logger.Info("new best result",
			slog.Int("worker", r.Worker),
			slog.Int("cycle", r.Cycle),
			slog.Float64("score", r.Score),
			slog.String("key", r.Key))
	}
	if m.store != nil {
		if err := m.store.Save(r); err != nil {
			m.logger.Warn("save result", slog.String("error", err.Error()))
		}
	}
}

// RunID identifies the run in logs, spans and the result store.
func (m *Manager) RunID() string {
	return m.runID
}

// Rules returns the lug rules of the run.
func (m *Manager) Rules() *lugrules.Rules {
	return m.rules
}

// Collector returns the best results of the run.
func (m *Manager) Collector() *results.Collector {
	return m.collector
}

// Evaluations returns the evaluations flushed by the workers so far.
func (m *Manager) Evaluations() int64 {
	return m.evaluations.Load()
}

// Stop asks every worker to return. It is safe to call from any goroutine.
func (m *Manager) Stop() {
	m.userStop.Store(true)
	m.stop.Store(true)
}

// Run attacks ciphertext, with the crib when it is not empty, until every
// worker has used its cycles, a worker finds the key (with StopOnFound),
// Stop is called or ctx is done.
func (m *Manager) Run(ctx context.Context, ciphertext, crib string) (*Summary, error) {
	mode := scoring.KindMonogram
	if crib != "" {
		mode = scoring.KindCrib
	}
	ctx, span := tracer.Start(ctx, "attack.Run", trace.WithAttributes(
		attribute.String("run_id", m.runID),
		attribute.String("mode", mode.String()),
		attribute.String("version", string(m.cfg.Version)),
		attribute.Int("threads", m.cfg.Threads),
	))
	defer span.End()

	parsed, err := machine.NewKey(m.rules, ciphertext, crib)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	var eval scoring.Evaluator
	if mode == scoring.KindCrib {
		if eval, err = scoring.NewCrib(parsed.Crib()); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	} else {
		eval = scoring.NewMonogram(m.stats)
	}
	m.collector.SetMode(mode)

	attrs := []any{
		slog.String("mode", mode.String()),
		slog.String("version", string(m.cfg.Version)),
		slog.Int("threads", m.cfg.Threads),
		slog.Int("cycles", m.cfg.Cycles),
		slog.Int("slide", m.cfg.Slide),
		slog.Int("letters", len(parsed.Cipher())),
		slog.Uint64("seed", m.seed),
	}
	if c, ok := eval.(*scoring.Crib); ok {
		attrs = append(attrs, slog.Int("crib_letters", c.Known()))
	}
	m.logger.Info("attack started", attrs...)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < m.cfg.Threads; id++ {
		g.Go(func() error {
			return m.runWorker(gctx, id, ciphertext, crib, eval)
		})
	}
	done := make(chan struct{})
	monitored := make(chan struct{})
	go func() {
		defer close(monitored)
		m.monitor(gctx, done, mode)
	}()
	err = g.Wait()
	close(done)
	<-monitored

	elapsed := time.Since(start)
	runDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	summary := &Summary{
		RunID:       m.runID,
		Mode:        mode,
		Evaluations: m.evaluations.Load(),
		Elapsed:     elapsed,
		Found:       m.found.Load(),
		Stopped:     m.userStop.Load() || ctx.Err() != nil,
	}
	summary.Best, summary.HasBest = m.collector.Best()
	span.SetAttributes(
		attribute.Int64("evaluations", summary.Evaluations),
		attribute.Bool("found", summary.Found),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("run %s: %w", m.runID, err)
	}
	m.logger.Info("attack finished",
		slog.Duration("elapsed", elapsed),
		slog.Int64("evaluations", summary.Evaluations),
		slog.Bool("found", summary.Found),
		slog.Bool("stopped", summary.Stopped))
	return summary, nil
}

func (m *Manager) runWorker(ctx context.Context, id int, ciphertext, crib string, eval scoring.Evaluator) error {
	ctx, span := tracer.Start(ctx, "attack.worker", trace.WithAttributes(attribute.Int("worker", id)))
	defer span.End()
	workersActive.Inc()
	defer workersActive.Dec()

	k, err := machine.NewKey(m.rules, ciphertext, crib)
	if err != nil {
		return err
	}
	if err := k.SetSlide(m.cfg.Slide); err != nil {
		return workerErr(id, err)
	}
	rng := rand.New(rand.NewPCG(m.seed, uint64(id)))
	s := search.New(k, eval, rng,
		search.WithStop(&m.stop),
		search.WithCounter(&m.evaluations),
		search.WithSchedule(m.schedule(eval.Kind())))
	s.NestedAnnealCycles = 1
	defer s.Flush()

	w := &Worker{
		ID:       id,
		RunID:    m.runID,
		Config:   &m.cfg,
		Searcher: s,
		Sink:     m.collector,
		Reporter: reporterFor(m.reporter, id),
	}

	if eval.Kind() == scoring.KindCrib {
		found, err := w.KnownPlaintext(ctx)
		if found {
			m.found.Store(true)
			if m.cfg.StopOnFound {
				m.stop.Store(true)
			}
		}
		err = workerErr(id, err)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	err = workerErr(id, w.CiphertextOnly(ctx))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func workerErr(id int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("worker %d: %w", id, err)
}

func (m *Manager) schedule(k scoring.Kind) search.Schedule {
	if k == scoring.KindCrib {
		return m.cfg.KnownPlaintext.Schedule
	}
	return m.cfg.CiphertextOnly.Schedule
}

// monitor publishes the evaluation count until done, and turns context
// cancellation into the stop flag the workers poll.
func (m *Manager) monitor(ctx context.Context, done <-chan struct{}, mode scoring.Kind) {
	ticker := time.NewTicker(m.cfg.ProgressInterval)
	defer ticker.Stop()
	counter := evaluationsTotal.WithLabelValues(mode.String())
	var reported int64
	flush := func() {
		n := m.evaluations.Load()
		counter.Add(float64(n - reported))
		reported = n
	}
	defer flush()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			m.stop.Store(true)
			<-done
			return
		case <-ticker.C:
			flush()
			best, _ := m.collector.Best()
			m.logger.Debug("run status",
				slog.Int64("evaluations", m.evaluations.Load()),
				slog.Float64("best", best.Score))
		}
	}
}
