package attack

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Severity grades a log message from the engine.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Reporter receives progress and log messages from the workers. Calls are
// fire-and-forget and may come from several goroutines at once.
type Reporter interface {
	Progress(phase, step string, current, total int)
	Log(text string, severity Severity)
}

// SlogReporter writes reports to a slog logger. Progress reports are
// throttled; log messages always pass.
type SlogReporter struct {
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewSlogReporter lets at most one progress report through per interval.
func NewSlogReporter(logger *slog.Logger, interval time.Duration) *SlogReporter {
	return &SlogReporter{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// ForWorker returns a reporter tagging messages with the worker id. It
// shares the progress throttle with r.
func (r *SlogReporter) ForWorker(id int) Reporter {
	return &SlogReporter{
		logger:  r.logger.With(slog.Int("worker", id)),
		limiter: r.limiter,
	}
}

func (r *SlogReporter) Progress(phase, step string, current, total int) {
	if !r.limiter.Allow() {
		return
	}
	r.logger.Info("progress",
		slog.String("phase", phase),
		slog.String("step", step),
		slog.Int("current", current),
		slog.Int("total", total))
}

func (r *SlogReporter) Log(text string, severity Severity) {
	r.logger.Log(context.Background(), severity.level(), text)
}

// WorkerReporter is a Reporter that can derive a per-worker reporter. The
// manager hands each worker ForWorker(id) when its reporter implements it.
type WorkerReporter interface {
	Reporter
	ForWorker(id int) Reporter
}

func reporterFor(r Reporter, id int) Reporter {
	if wr, ok := r.(WorkerReporter); ok {
		return wr.ForWorker(id)
	}
	return r
}
