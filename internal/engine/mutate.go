package engine

import (
	"context"

	"github.com/joshharrison/fasttrack/internal/graph"
	"github.com/joshharrison/fasttrack/internal/logging"
)

// write runs fn under the writer lock and logs the mutation when it succeeds.
// A failed mutation leaves the graph and its version untouched.
func (e *Engine) write(ctx context.Context, op string, fn func(g *graph.Graph) error, attrs ...any) error {
	e.mu.Lock()
	err := fn(e.g)
	version := e.g.Version()
	e.mu.Unlock()

	log := logging.FromContext(ctx)
	if err != nil {
		log.Debug(op+" rejected", append(attrs, "error", err)...)
		return err
	}
	log.Debug(op, append(attrs, "version", version)...)
	return nil
}

// AddActivity inserts an activity. Duplicate IDs are rejected.
func (e *Engine) AddActivity(ctx context.Context, a graph.Activity) error {
	return e.write(ctx, "add activity", func(g *graph.Graph) error {
		return g.AddActivity(a)
	}, "activity", a.ID)
}

// RemoveActivity deletes an activity. Without force it fails while any
// dependency still references it; with force those links go too.
func (e *Engine) RemoveActivity(ctx context.Context, id string, force bool) error {
	return e.write(ctx, "remove activity", func(g *graph.Graph) error {
		return g.RemoveActivity(id, force)
	}, "activity", id, "force", force)
}

// AddDependency links two activities, rejecting cycles and impossible lags.
func (e *Engine) AddDependency(ctx context.Context, d graph.Dependency) error {
	return e.write(ctx, "add dependency", func(g *graph.Graph) error {
		return g.AddDependency(d)
	}, "dependency", d.String())
}

// RemoveDependency drops the link from predID to succID.
func (e *Engine) RemoveDependency(ctx context.Context, predID, succID string) error {
	return e.write(ctx, "remove dependency", func(g *graph.Graph) error {
		return g.RemoveDependency(predID, succID)
	}, "predecessor", predID, "successor", succID)
}

// SetDataDate moves the status date the schedule is computed from.
func (e *Engine) SetDataDate(ctx context.Context, day int) error {
	return e.write(ctx, "set data date", func(g *graph.Graph) error {
		g.SetDataDate(day)
		return nil
	}, "data_date", day)
}
