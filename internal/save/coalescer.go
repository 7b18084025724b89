// Package save coalesces bursts of state-change notifications into
// minimally-sized writes against the state store.
//
// Requests carry reasons ("geometry", "state", "floating", ...). A quiet
// window debounces bursts, a minimum inter-flush interval rate-limits writes
// even after the burst quiesces, and an overflow valve flushes immediately
// when too many distinct reasons pile up. Failed writes are re-enqueued and
// retried; they are never dropped silently.
package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/namepick/internal/foundation"
	"git.home.luguber.info/inful/namepick/internal/logfields"
	"git.home.luguber.info/inful/namepick/internal/metrics"
	"git.home.luguber.info/inful/namepick/internal/retry"
	"git.home.luguber.info/inful/namepick/internal/state"
)

// Reason tags why a save was requested.
type Reason string

const (
	// ReasonGeometry marks window-geometry changes. A new geometry request
	// replaces any pending one; geometry is idempotently overwritten, never
	// queued twice.
	ReasonGeometry Reason = "geometry"
	// ReasonState marks selection/UI state changes.
	ReasonState Reason = "state"
	// ReasonFloating marks floating-window state changes. State and floating
	// coalesce into one combined flush when both are pending.
	ReasonFloating Reason = "floating"
)

// overflowLimit is the pending-set size above which the coalescer flushes
// immediately instead of waiting out the quiet window.
const overflowLimit = 5

// Snapshot supplies the current in-memory field values for a flush. The
// returned mapping holds only the keys the given reasons are responsible
// for; the coalescer diffs them against the store before writing.
type Snapshot interface {
	BuildUpdates(reasons map[Reason]struct{}) state.Mapping
}

// SnapshotFunc adapts a function to the Snapshot interface.
type SnapshotFunc func(reasons map[Reason]struct{}) state.Mapping

func (f SnapshotFunc) BuildUpdates(reasons map[Reason]struct{}) state.Mapping {
	return f(reasons)
}

// CoalescerConfig carries the timing knobs.
type CoalescerConfig struct {
	QuietWindow time.Duration // debounce delay after the last request
	MinInterval time.Duration // minimum spacing between successful flushes
	RetryPolicy retry.Policy  // backoff for failed flushes (fixed by default)
	Recorder    metrics.Recorder
}

// Coalescer merges save requests and drives the state store.
//
// All internal state is owned by the Run goroutine; Request and FlushNow
// communicate with it over channels, so no mutation happens concurrently.
type Coalescer struct {
	store    *state.Store
	snapshot Snapshot
	cfg      CoalescerConfig

	reqCh     chan []Reason
	flushCh   chan chan error
	readyOnce sync.Once
	ready     chan struct{}

	// loop-owned state, only touched inside Run
	pending    map[Reason]struct{}
	lastFlush  time.Time
	retryCount int
}

// NewCoalescer validates the configuration and builds a coalescer. Run must
// be started before requests have any effect.
func NewCoalescer(store *state.Store, snapshot Snapshot, cfg CoalescerConfig) (*Coalescer, error) {
	if store == nil {
		return nil, foundation.ValidationError("store is required").Build()
	}
	if snapshot == nil {
		return nil, foundation.ValidationError("snapshot provider is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, foundation.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MinInterval < 0 {
		return nil, foundation.ValidationError("min interval cannot be negative").Build()
	}
	if cfg.RetryPolicy == (retry.Policy{}) {
		cfg.RetryPolicy = retry.DefaultPolicy()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}

	return &Coalescer{
		store:    store,
		snapshot: snapshot,
		cfg:      cfg,
		reqCh:    make(chan []Reason, 64),
		flushCh:  make(chan chan error, 1),
		ready:    make(chan struct{}),
		pending:  make(map[Reason]struct{}),
	}, nil
}

// Ready is closed once Run is accepting requests. Intended for tests and
// deterministic startup sequencing.
func (c *Coalescer) Ready() <-chan struct{} {
	return c.ready
}

// Request registers save reasons. Safe to call from any goroutine; the Run
// loop performs the actual merge. Requests sent before Run starts sit in the
// channel buffer.
func (c *Coalescer) Request(reasons ...Reason) {
	if len(reasons) == 0 {
		return
	}
	c.reqCh <- reasons
}

// FlushNow forces a synchronous flush of everything pending, bypassing both
// the quiet window and the minimum interval. Used on shutdown.
func (c *Coalescer) FlushNow(ctx context.Context) error {
	done := make(chan error, 1)
	select {
	case c.flushCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the debounce loop until the context is canceled. Stopping drops
// any scheduled flush without side effects.
func (c *Coalescer) Run(ctx context.Context) error {
	if ctx == nil {
		return foundation.ValidationError("context cannot be nil").Build()
	}

	c.readyOnce.Do(func() { close(c.ready) })

	quietTimer := time.NewTimer(time.Hour)
	stopTimer(quietTimer)
	retryTimer := time.NewTimer(time.Hour)
	stopTimer(retryTimer)

	var (
		quietC <-chan time.Time
		retryC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case reasons := <-c.reqCh:
			c.merge(reasons)

			if len(c.pending) > overflowLimit {
				slog.Debug("Pending save reasons overflow, flushing immediately",
					"pending", len(c.pending))
				stopTimer(quietTimer)
				quietC = nil
				if !c.flush() {
					resetTimer(retryTimer, c.cfg.RetryPolicy.Delay(c.retryCount))
					retryC = retryTimer.C
				}
				continue
			}

			// true debounce: every request restarts the quiet window
			resetTimer(quietTimer, c.cfg.QuietWindow)
			quietC = quietTimer.C

		case <-quietC:
			quietC = nil
			if wait := c.minIntervalRemaining(); wait > 0 {
				// rate limit: reschedule for the remaining interval; this can
				// chain multiple times
				slog.Debug("Deferring flush to honor min interval", "wait", wait)
				resetTimer(quietTimer, wait)
				quietC = quietTimer.C
				continue
			}
			if !c.flush() {
				resetTimer(retryTimer, c.cfg.RetryPolicy.Delay(c.retryCount))
				retryC = retryTimer.C
			}

		case <-retryC:
			retryC = nil
			if !c.flush() {
				resetTimer(retryTimer, c.cfg.RetryPolicy.Delay(c.retryCount))
				retryC = retryTimer.C
			}

		case done := <-c.flushCh:
			c.drainRequests()
			stopTimer(quietTimer)
			quietC = nil
			if c.flush() {
				done <- nil
			} else {
				done <- foundation.PersistenceError("flush failed").
					WithComponent("save").
					Build()
				resetTimer(retryTimer, c.cfg.RetryPolicy.Delay(c.retryCount))
				retryC = retryTimer.C
			}
		}
	}
}

// drainRequests folds any queued requests into the pending set so a forced
// flush covers everything requested before it.
func (c *Coalescer) drainRequests() {
	for {
		select {
		case reasons := <-c.reqCh:
			c.merge(reasons)
		default:
			return
		}
	}
}

// merge folds new reasons into the pending set. Geometry requests replace the
// pending geometry entry rather than accumulating.
func (c *Coalescer) merge(reasons []Reason) {
	for _, reason := range reasons {
		if reason == ReasonGeometry {
			if _, dup := c.pending[ReasonGeometry]; dup {
				slog.Debug("Merged duplicate geometry save request")
			}
		}
		c.pending[reason] = struct{}{}
	}
}

func (c *Coalescer) minIntervalRemaining() time.Duration {
	if c.lastFlush.IsZero() || c.cfg.MinInterval == 0 {
		return 0
	}
	elapsed := time.Since(c.lastFlush)
	if elapsed >= c.cfg.MinInterval {
		return 0
	}
	return c.cfg.MinInterval - elapsed
}

// flush writes the union of pending reasons. Returns false when the save
// failed and the reasons were re-enqueued for retry.
func (c *Coalescer) flush() bool {
	if len(c.pending) == 0 {
		return true
	}

	reasons := c.pending
	c.pending = make(map[Reason]struct{})

	started := time.Now()
	updates := c.snapshot.BuildUpdates(reasons)

	current := c.store.Load()
	changed := false
	for key, value := range updates {
		if valueChanged(current[key], value) {
			current[key] = value
			changed = true
		}
	}
	if !changed {
		slog.Debug("No state fields changed, skipping save", "reasons", reasonNames(reasons))
		c.lastFlush = time.Now()
		c.retryCount = 0
		return true
	}

	if err := c.store.Save(current); err != nil {
		// re-enqueue the same reasons; failures are never dropped
		for reason := range reasons {
			c.pending[reason] = struct{}{}
		}
		c.retryCount++
		c.cfg.Recorder.IncFlushOutcome(metrics.ResultFailure)
		slog.Warn("State flush failed, will retry",
			logfields.Reasons(reasonNames(reasons)),
			logfields.RetryCount(c.retryCount),
			logfields.Error(err))
		return false
	}

	c.lastFlush = time.Now()
	c.retryCount = 0
	c.cfg.Recorder.IncFlushOutcome(metrics.ResultSuccess)
	c.cfg.Recorder.ObserveFlushDuration(time.Since(started))
	slog.Debug("State flushed", "reasons", reasonNames(reasons))
	return true
}

// valueChanged compares values through their JSON rendering, so 170 and
// float64(170) read back from disk compare equal.
func valueChanged(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return true
	}
	return string(aj) != string(bj)
}

func reasonNames(reasons map[Reason]struct{}) []string {
	out := make([]string, 0, len(reasons))
	for reason := range reasons {
		out = append(out, string(reason))
	}
	return out
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
