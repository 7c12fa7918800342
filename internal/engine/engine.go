// Package engine owns one schedule and serves the read and write API over
// it. Writes are serialized behind a lock; reads are served from an
// immutable snapshot that is recomputed lazily after each write and swapped
// in atomically, so a reader sees either the old or the new schedule and
// never a partial one.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joshharrison/fasttrack/internal/cpm"
	"github.com/joshharrison/fasttrack/internal/fasttrack"
	"github.com/joshharrison/fasttrack/internal/graph"
	"github.com/joshharrison/fasttrack/internal/logging"
	"github.com/joshharrison/fasttrack/internal/update"
)

// Options configures an Engine.
type Options struct {
	Compute   cpm.Options
	FastTrack fasttrack.Config
	Update    update.Options
	// EagerRecompute starts a background recompute after every commit
	// instead of waiting for the next read.
	EagerRecompute bool
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Compute:   cpm.Options{Timeout: 2 * time.Second},
		FastTrack: fasttrack.DefaultConfig(),
		Update:    update.DefaultOptions(),
	}
}

// Snapshot is one computed schedule version. Nothing in it is mutated after
// it is published.
type Snapshot struct {
	Version    uint64
	Graph      *graph.Graph // private copy at Version
	Result     *cpm.Result
	Warnings   []cpm.Warning
	ComputedAt time.Time
	Elapsed    time.Duration
}

// Engine is safe for concurrent use.
type Engine struct {
	opts Options

	mu sync.RWMutex
	g  *graph.Graph

	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
	bg    sync.WaitGroup
}

// New wraps g. The engine takes ownership; callers must not touch g afterwards.
func New(g *graph.Graph, opts Options) *Engine {
	return &Engine{g: g, opts: opts}
}

// Version returns the current graph version.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.Version()
}

// Dirty reports whether the published snapshot lags behind the graph.
func (e *Engine) Dirty() bool {
	s := e.snap.Load()
	return s == nil || s.Version != e.Version()
}

// View runs fn with read access to the live graph.
func (e *Engine) View(fn func(g *graph.Graph)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.g)
}

// Snapshot returns a snapshot for the current graph version, computing one
// if needed. Concurrent callers asking for the same version share a single
// computation.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.mu.RLock()
	version := e.g.Version()
	if s := e.snap.Load(); s != nil && s.Version == version {
		e.mu.RUnlock()
		return s, nil
	}
	clone := e.g.Clone()
	e.mu.RUnlock()

	v, err, _ := e.group.Do(strconv.FormatUint(version, 10), func() (any, error) {
		return e.compute(ctx, clone)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (e *Engine) compute(ctx context.Context, g *graph.Graph) (*Snapshot, error) {
	log := logging.FromContext(ctx)
	started := time.Now()

	res, warnings, err := cpm.Analyze(g, e.opts.Compute)
	if err != nil {
		log.Error("schedule computation failed", "version", g.Version(), "error", err)
		return nil, fmt.Errorf("compute schedule v%d: %w", g.Version(), err)
	}

	s := &Snapshot{
		Version:    g.Version(),
		Graph:      g,
		Result:     res,
		Warnings:   warnings,
		ComputedAt: started,
		Elapsed:    time.Since(started),
	}
	e.publish(s)

	log.Debug("schedule recomputed",
		"version", s.Version,
		"activities", g.ActivityCount(),
		"finish", res.ProjectFinish,
		"elapsed", s.Elapsed)
	for _, w := range warnings {
		log.Warn("schedule warning", "activity", w.ActivityID, "error", w.Err)
	}
	return s, nil
}

// publish swaps s in unless a newer snapshot is already visible.
func (e *Engine) publish(s *Snapshot) {
	for {
		cur := e.snap.Load()
		if cur != nil && cur.Version >= s.Version {
			return
		}
		if e.snap.CompareAndSwap(cur, s) {
			return
		}
	}
}

// ComputeSchedule returns the CPM result and feasibility warnings for the
// current schedule.
func (e *Engine) ComputeSchedule(ctx context.Context) (*cpm.Result, []cpm.Warning, error) {
	s, err := e.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s.Result, s.Warnings, nil
}

// GetFastTrackOpportunities analyzes the current schedule with cfg.
func (e *Engine) GetFastTrackOpportunities(ctx context.Context, cfg fasttrack.Config) ([]fasttrack.Opportunity, error) {
	s, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return fasttrack.Analyze(s.Graph, s.Result, cfg), nil
}

// Opportunities analyzes the current schedule with the engine's configured
// selection settings.
func (e *Engine) Opportunities(ctx context.Context) ([]fasttrack.Opportunity, error) {
	return e.GetFastTrackOpportunities(ctx, e.opts.FastTrack)
}

// ValidateAndCommit applies a batch of updates all-or-nothing. The schedule
// is not recomputed here; the next read does it.
func (e *Engine) ValidateAndCommit(ctx context.Context, edits []update.Edit) *update.Outcome {
	log := logging.FromContext(ctx)

	e.mu.Lock()
	out := update.Commit(e.g, edits, e.opts.Update)
	e.mu.Unlock()

	if !out.Committed {
		log.Info("update batch rejected", "edits", len(edits), "errors", len(out.Errors))
		return out
	}
	log.Info("update batch committed", "edits", len(edits), "version", out.Version, "warnings", len(out.Warnings))

	if e.opts.EagerRecompute {
		e.refresh(ctx)
	}
	return out
}

// ImplementFastTrack installs the opportunity's dependency change and
// recomputes the schedule before returning.
func (e *Engine) ImplementFastTrack(ctx context.Context, o fasttrack.Opportunity) (graph.Dependency, bool, error) {
	e.mu.Lock()
	dep, err := fasttrack.Apply(e.g, o)
	e.mu.Unlock()
	if err != nil {
		return graph.Dependency{}, false, err
	}
	logging.FromContext(ctx).Info("fast-track implemented", "dependency", dep.String(), "savings", o.PotentialSavingsDays)

	if _, err := e.Snapshot(ctx); err != nil {
		return dep, false, err
	}
	return dep, true, nil
}

// Variances reports every activity's slip against its baseline, using
// actual dates where recorded and early dates otherwise.
func (e *Engine) Variances(ctx context.Context) ([]update.Variance, error) {
	s, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]update.Variance, 0, len(s.Result.TopoOrder))
	for _, id := range s.Result.TopoOrder {
		a, _ := s.Graph.Activity(id)
		ts := s.Result.Activities[id]
		start, finish := graph.Int(ts.CurrentStart()), graph.Int(ts.CurrentFinish())
		if a.ActualStart != nil {
			start = a.ActualStart
		}
		if a.ActualFinish != nil {
			finish = a.ActualFinish
		}
		out = append(out, update.ForActivity(a, start, finish))
	}
	return out, nil
}

// refresh recomputes in the background. Errors resurface on the next read.
func (e *Engine) refresh(ctx context.Context) {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		_, _ = e.Snapshot(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until background recomputes have finished.
func (e *Engine) Wait() {
	e.bg.Wait()
}
