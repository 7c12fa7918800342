package update

import (
	"fmt"

	"github.com/joshharrison/fasttrack/internal/graph"
)

// Commit validates the batch and, if every edit passes, writes all of them
// into g. A rejected batch leaves g untouched. Callers own the graph lock.
func Commit(g *graph.Graph, edits []Edit, opts Options) *Outcome {
	errs, warns := Validate(g, edits, opts)
	if len(errs) > 0 {
		return &Outcome{Errors: errs, Version: g.Version()}
	}

	out := &Outcome{Committed: true, Warnings: warns}
	for _, e := range edits {
		if err := g.UpdateActivity(e.ActivityID, func(a *graph.Activity) { write(a, e) }); err != nil {
			panic(fmt.Sprintf("update: activity %q was resolved during validation but cannot be written: %v", e.ActivityID, err))
		}
		a, _ := g.Activity(e.ActivityID)
		out.Variances = append(out.Variances, ForActivity(a, a.ActualStart, a.ActualFinish))
	}
	out.Version = g.Version()
	return out
}

func write(a *graph.Activity, e Edit) {
	if e.ActualStart != nil {
		a.ActualStart = graph.Int(*e.ActualStart)
	}
	if e.ActualFinish != nil {
		a.ActualFinish = graph.Int(*e.ActualFinish)
		a.PercentComplete = 100
	}
	if e.PercentComplete != nil {
		a.PercentComplete = *e.PercentComplete
	}
	if e.ChangeType != "" {
		a.LastChange = e.ChangeType
	}
	if e.DelayReason != "" {
		a.DelayReason = e.DelayReason
	}
	if e.Notes != "" {
		a.Notes = e.Notes
	}
}
