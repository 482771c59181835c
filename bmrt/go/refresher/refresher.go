// Package refresher keeps the BMRT cache up to date by periodically
// rebuilding a snapshot in a background goroutine and publishing it with an
// atomic pointer swap.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lwz9103/conbench/bmrt/go/resultstore"
	"github.com/lwz9103/conbench/bmrt/go/snapshot"
	"github.com/lwz9103/conbench/go/metrics2"
	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sklog"
)

const (
	// DefaultInitialDelay is the wait before the first build.
	DefaultInitialDelay = 3 * time.Second

	// DefaultMinDelay is the shortest wait between two builds.
	DefaultMinDelay = 120 * time.Second

	// delayFactor scales the duration of the last build into the wait
	// before the next one, so a slow store is queried less often.
	delayFactor = 5
)

// State of the refresh loop.
type State int32

const (
	Idle State = iota
	Fetching
	Publishing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Publishing:
		return "publishing"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Options for a Refresher.
type Options struct {
	InitialDelay time.Duration
	MinDelay     time.Duration

	// RefreshTimeout bounds a single build. Zero means no bound.
	RefreshTimeout time.Duration

	Build snapshot.Options
}

// Refresher owns the current snapshot. Get may be called from any
// goroutine.
type Refresher struct {
	store resultstore.ResultStore
	opts  Options

	current atomic.Pointer[snapshot.Snapshot]
	state   atomic.Int32

	// buildMutex is held across a build and its publish, so there is only
	// ever one writer of current.
	buildMutex sync.Mutex

	mutex      sync.Mutex
	started    bool
	shutdown   bool
	cancel     context.CancelFunc
	done       chan struct{}
	lastCycle  time.Duration
	cycleCount int

	lastUpdateSeconds metrics2.Float64Metric
	resultCount       metrics2.Int64Metric
	failures          metrics2.Counter
	liveness          metrics2.Liveness
}

// New returns a Refresher that reads from store. Nothing happens until
// Start is called.
func New(store resultstore.ResultStore, opts Options) *Refresher {
	if opts.MinDelay <= 0 {
		opts.MinDelay = DefaultMinDelay
	}
	if opts.InitialDelay < 0 {
		opts.InitialDelay = 0
	}
	return &Refresher{
		store:             store,
		opts:              opts,
		done:              make(chan struct{}),
		lastUpdateSeconds: metrics2.GetFloat64Metric("bmrt_cache_last_update_seconds"),
		resultCount:       metrics2.GetInt64Metric("bmrt_cache_results"),
		failures:          metrics2.GetCounter("bmrt_cache_refresh_failures"),
		liveness:          metrics2.NewLiveness("bmrt_cache_refresh"),
	}
}

// nextDelay is max(minDelay, delayFactor * lastCycle).
func nextDelay(minDelay, lastCycle time.Duration) time.Duration {
	d := delayFactor * lastCycle
	if d < minDelay {
		return minDelay
	}
	return d
}

// Get returns the most recently published snapshot, or nil if no build has
// succeeded yet. The returned snapshot stays valid and unchanged even after
// a newer one is published.
func (r *Refresher) Get() *snapshot.Snapshot {
	return r.current.Load()
}

// State returns the current state of the loop.
func (r *Refresher) State() State {
	return State(r.state.Load())
}

// Start launches the refresh loop. Calling it more than once, or after
// RequestShutdown, does nothing. The loop also stops when ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.started {
		return
	}
	r.started = true
	if r.shutdown {
		r.state.Store(int32(Stopped))
		close(r.done)
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	go r.run(ctx)
}

// RequestShutdown asks the loop to stop. It returns immediately and may be
// called any number of times, before or after Start. A build that is
// already running is allowed to finish and publish, no new build starts.
func (r *Refresher) RequestShutdown() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.shutdown {
		return
	}
	r.shutdown = true
	sklog.Info("BMRT cache: shutdown requested")
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the loop has exited. It returns immediately if Start
// was never called.
func (r *Refresher) Wait() {
	r.mutex.Lock()
	started := r.started
	r.mutex.Unlock()
	if !started {
		return
	}
	<-r.done
}

// sleep waits for d and returns false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)
	defer r.state.Store(int32(Stopped))

	sklog.Infof("BMRT cache: first refresh in %s", r.opts.InitialDelay)
	if !sleep(ctx, r.opts.InitialDelay) {
		sklog.Info("BMRT cache: stopped before first refresh")
		return
	}
	for {
		d := r.cycle(ctx)
		delay := nextDelay(r.opts.MinDelay, d)
		sklog.Infof("BMRT cache: cycle took %s, next refresh in %s", d, delay)
		if !sleep(ctx, delay) {
			sklog.Info("BMRT cache: refresh loop stopped")
			return
		}
	}
}

// cycle runs one build and returns how long it took. A panic in the build
// is logged and treated as a failed cycle so the loop keeps going.
func (r *Refresher) cycle(ctx context.Context) (d time.Duration) {
	timer := metrics2.NewTimer("bmrt_cache_refresh_duration")
	defer func() {
		if p := recover(); p != nil {
			r.failures.Inc(1)
			sklog.Errorf("BMRT cache: refresh panicked, keeping previous snapshot: %v", p)
		}
		d = timer.Stop()
		r.mutex.Lock()
		r.lastCycle = d
		r.cycleCount++
		r.mutex.Unlock()
		r.state.Store(int32(Idle))
	}()
	// The build is detached from ctx so a shutdown doesn't abort it half
	// way.
	_ = r.RefreshOnce(context.WithoutCancel(ctx))
	return
}

// Cycles returns how many cycles the loop has run and how long the last one
// took.
func (r *Refresher) Cycles() (int, time.Duration) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.cycleCount, r.lastCycle
}

// RefreshOnce builds a snapshot and publishes it. On snapshot.ErrEmpty or
// any other error the previous snapshot is kept and the error is returned.
// Concurrent calls are serialized, so a later call always publishes after
// an earlier one.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.buildMutex.Lock()
	defer r.buildMutex.Unlock()
	if r.opts.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RefreshTimeout)
		defer cancel()
	}
	r.state.Store(int32(Fetching))
	snap, err := snapshot.Build(ctx, r.store, r.opts.Build)
	if errors.Is(err, snapshot.ErrEmpty) {
		sklog.Info("BMRT cache: query returned no results, keeping previous snapshot")
		return err
	}
	if err != nil {
		r.failures.Inc(1)
		sklog.Errorf("BMRT cache: refresh failed, keeping previous snapshot: %s", err)
		return skerr.Wrap(err)
	}

	r.state.Store(int32(Publishing))
	r.current.Store(snap)

	md := snap.Metadata()
	r.lastUpdateSeconds.Update(md.BuildDuration.Seconds())
	r.resultCount.Update(int64(md.ResultCount))
	r.liveness.Reset()
	sklog.Infof("BMRT cache: published %s results in %s series covering %d days (%s to %s), skipped %s, build took %s",
		humanize.Comma(int64(md.ResultCount)),
		humanize.Comma(int64(md.TimeSeriesCount)),
		md.CoveredDays,
		md.OldestDisplay,
		md.NewestDisplay,
		humanize.Comma(int64(md.SkippedNoCommit+md.SkippedNotDefaultBranch)),
		md.BuildDuration)
	return nil
}
