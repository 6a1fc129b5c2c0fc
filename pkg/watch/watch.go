// Package watch polls the accessibility tree and reports what changed between
// consecutive captures.
//
// Typical usage:
//
//	e := watch.New(w, watch.Options{Interval: 500 * time.Millisecond, MaxTicks: 10})
//	err := e.Run(ctx, func(t watch.Tick) error { return render(t) })
//
// Each tick fully completes, capture then diff then emit, before the engine
// sleeps. The sleep is the only suspension point and the only place
// cancellation is observed; a capture in progress is never interrupted.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
)

// DefaultInterval is the polling interval when none is configured.
const DefaultInterval = 500 * time.Millisecond

// ErrStop may be returned by an emit callback to end the loop without error.
var ErrStop = errors.New("watch stopped")

// Capturer produces a fresh Snapshot. *walker.Walker satisfies it.
type Capturer interface {
	CaptureFrontmost() (*element.Snapshot, error)
}

// Options tunes the engine.
type Options struct {
	// Interval is the sleep between ticks. Default: 500ms.
	Interval time.Duration
	// MaxTicks ends the loop after that many ticks. 0 runs until cancelled.
	MaxTicks int
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Tick is the result of one poll.
type Tick struct {
	// Index counts ticks from 1.
	Index int
	At    time.Time
	// Snapshot is nil when the capture failed.
	Snapshot *element.Snapshot
	// Delta is relative to the last successful capture. The first successful
	// tick is the baseline: everything is added.
	Delta element.Delta
	// Err is set when the capture for this tick was abandoned.
	Err error

	baseline bool
}

// Baseline reports whether the tick is the first successful capture.
func (t Tick) Baseline() bool {
	return t.baseline
}

// Stats are point-in-time counters.
type Stats struct {
	Ticks   int64 `json:"ticks"`
	Changes int64 `json:"changes"`
	Errors  int64 `json:"errors"`
}

// Engine runs the poll loop.
type Engine struct {
	capture Capturer
	opts    Options

	ticks   atomic.Int64
	changes atomic.Int64
	errs    atomic.Int64
}

// New creates an engine over c.
func New(c Capturer, opts Options) *Engine {
	opts.defaults()
	return &Engine{capture: c, opts: opts}
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:   e.ticks.Load(),
		Changes: e.changes.Load(),
		Errors:  e.errs.Load(),
	}
}

// Run polls until MaxTicks ticks have been emitted, ctx is cancelled, emit
// returns an error, or a capture fails with PermissionDenied.
//
// A ProviderUnavailable capture abandons only that tick: it is emitted with
// Err set and counts toward MaxTicks. Cancellation returns ctx.Err(); ErrStop
// from emit returns nil.
func (e *Engine) Run(ctx context.Context, emit func(Tick) error) error {
	log := e.opts.Logger
	log.Debug("watch: started", "interval", e.opts.Interval, "max_ticks", e.opts.MaxTicks)

	var prev *element.Snapshot
	for i := 1; e.opts.MaxTicks <= 0 || i <= e.opts.MaxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tick := e.poll(i, prev)
		if tick.Err != nil && axerrors.IsFatal(tick.Err) {
			return tick.Err
		}
		if tick.Snapshot != nil {
			prev = tick.Snapshot
		}

		if err := emit(tick); err != nil {
			if errors.Is(err, ErrStop) {
				log.Debug("watch: stopped by consumer", "tick", i)
				return nil
			}
			return err
		}

		if e.opts.MaxTicks > 0 && i == e.opts.MaxTicks {
			break
		}

		timer := time.NewTimer(e.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug("watch: stopped", "tick", i)
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (e *Engine) poll(i int, prev *element.Snapshot) Tick {
	e.ticks.Add(1)
	tick := Tick{Index: i, At: time.Now()}

	snap, err := e.capture.CaptureFrontmost()
	if err != nil {
		e.errs.Add(1)
		tick.Err = axerrors.Classify("watch capture", err)
		if !axerrors.IsFatal(tick.Err) {
			e.opts.Logger.Warn("watch: tick abandoned", "tick", i, "error", tick.Err)
		}
		return tick
	}

	tick.Snapshot = snap
	tick.Delta = Diff(prev, snap)
	tick.baseline = prev == nil
	if !tick.baseline && !tick.Delta.IsEmpty() {
		e.changes.Add(1)
	}
	return tick
}
