package cpm

import (
	"sort"
	"time"

	"github.com/joshharrison/fasttrack/internal/graph"
)

// Analyze performs critical path method analysis on a graph. It is a pure
// function of the graph: running it twice on an unmodified graph yields
// identical results.
//
// Activities with recorded actuals are pinned to them; everything else is
// scheduled from the project start (or the data date, whichever is later).
// Negative float does not abort the analysis; it is reported as a Warning.
func Analyze(g *graph.Graph, opts Options) (*Result, []Warning, error) {
	clock := newGuard(opts.Timeout)

	order, err := topoSort(g)
	if err != nil {
		return nil, nil, err
	}
	if err := clock.check("topological sort"); err != nil {
		return nil, nil, err
	}

	result := &Result{
		Version:      g.Version(),
		Activities:   make(map[string]*ActivitySchedule, len(order)),
		TopoOrder:    order,
		ProjectStart: g.Start(),
		Floor:        max(g.Start(), g.DataDate()),
	}
	for _, id := range order {
		result.Activities[id] = &ActivitySchedule{ActivityID: id}
	}

	// Forward pass: compute ES and EF
	floor := result.Floor
	for _, id := range order {
		if err := clock.check("forward pass"); err != nil {
			return nil, nil, err
		}
		a, _ := g.Activity(id)
		ts := result.Activities[id]

		switch {
		case a.ActualStart != nil:
			ts.Actualized = true
			ts.ES = *a.ActualStart
			if a.ActualFinish != nil {
				ts.EF = *a.ActualFinish
			} else {
				ts.EF = ts.ES + a.Duration
				if rest := g.DataDate() + remaining(a); rest > ts.EF {
					ts.EF = rest
				}
			}
		case a.ActualFinish != nil:
			ts.Actualized = true
			ts.EF = *a.ActualFinish
			ts.ES = ts.EF - a.Duration
		default:
			es := floor
			for _, dep := range g.Predecessors(id) {
				if c := Constraint(dep, result.Activities[dep.PredecessorID], a.Duration); c > es {
					es = c
				}
			}
			ts.ES = es
			ts.EF = es + a.Duration
		}
	}

	projectFinish := result.ProjectStart
	for _, ts := range result.Activities {
		if ts.EF > projectFinish {
			projectFinish = ts.EF
		}
	}
	result.ProjectFinish = projectFinish
	result.TotalDuration = projectFinish - result.ProjectStart

	anchor := projectFinish
	if fc := g.FinishConstraint(); fc != nil {
		anchor = *fc
	}

	// Backward pass: compute LS and LF in reverse topological order
	for i := len(order) - 1; i >= 0; i-- {
		if err := clock.check("backward pass"); err != nil {
			return nil, nil, err
		}
		id := order[i]
		a, _ := g.Activity(id)
		ts := result.Activities[id]
		span := ts.EF - ts.ES

		lf := anchor
		if a.FinishNoLaterThan != nil && *a.FinishNoLaterThan < lf {
			lf = *a.FinishNoLaterThan
		}
		for _, dep := range g.Successors(id) {
			succ := result.Activities[dep.SuccessorID]
			var c int
			switch dep.Logic {
			case graph.SS:
				c = succ.LS - dep.Lag + span
			case graph.FF:
				c = succ.LF - dep.Lag
			case graph.SF:
				c = succ.LF - dep.Lag + span
			default:
				c = succ.LS - dep.Lag
			}
			if c < lf {
				lf = c
			}
		}
		ts.LF = lf
		ts.LS = lf - span
		ts.TotalFloat = ts.LS - ts.ES
		ts.IsCritical = ts.TotalFloat == 0
	}

	// Free float: slack against the tightest immediate successor.
	for _, id := range order {
		ts := result.Activities[id]
		ff := anchor - ts.EF
		for _, dep := range g.Successors(id) {
			succ := result.Activities[dep.SuccessorID]
			slack := succ.ES - Constraint(dep, ts, succ.EF-succ.ES)
			if slack < ff {
				ff = slack
			}
		}
		ts.FreeFloat = ff
	}

	var warnings []Warning
	for _, id := range order {
		ts := result.Activities[id]
		if ts.IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
		if ts.TotalFloat < 0 {
			warnings = append(warnings, Warning{
				ActivityID: id,
				Err:        &NegativeFloatError{ActivityID: id, Float: ts.TotalFloat},
			})
		}
	}

	result.Waves = computeWaves(result)

	return result, warnings, nil
}

// Constraint returns the earliest start a dependency allows its successor,
// given the predecessor's schedule and the successor's duration.
func Constraint(dep graph.Dependency, pred *ActivitySchedule, succDuration int) int {
	switch dep.Logic {
	case graph.SS:
		return pred.ES + dep.Lag
	case graph.FF:
		return pred.EF + dep.Lag - succDuration
	case graph.SF:
		return pred.ES + dep.Lag - succDuration
	default:
		return pred.EF + dep.Lag
	}
}

// remaining is the work left on an in-progress activity, rounded up to whole days.
func remaining(a *graph.Activity) int {
	pct := a.PercentComplete
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return (a.Duration*(100-pct) + 99) / 100
}

// topoSort performs Kahn's algorithm for topological sorting.
func topoSort(g *graph.Graph) ([]string, error) {
	ids := g.IDs()
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(g.PredecessorIDs(id))
	}

	// Start with roots (in-degree 0); IDs are already sorted for determinism
	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.SuccessorIDs(node) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(ids) {
		return nil, &graph.CycleError{Path: g.DetectCycle()}
	}

	return order, nil
}

// computeWaves groups activities by their early start.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[int][]string)
	for _, id := range result.TopoOrder {
		es := result.Activities[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		ids := esGroups[es]
		sort.Strings(ids)

		hasCritical := false
		for _, id := range ids {
			result.Activities[id].Wave = i
			if result.Activities[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical activities first within a wave
		sort.SliceStable(ids, func(a, b int) bool {
			aCrit := result.Activities[ids[a]].IsCritical
			bCrit := result.Activities[ids[b]].IsCritical
			return aCrit && !bCrit
		})

		waves[i] = Wave{
			Index:       i,
			Start:       es,
			ActivityIDs: ids,
			IsCritical:  hasCritical,
		}
	}

	return waves
}

type guard struct {
	limit   time.Duration
	started time.Time
}

func newGuard(limit time.Duration) guard {
	return guard{limit: limit, started: time.Now()}
}

func (g guard) check(stage string) error {
	if g.limit <= 0 {
		return nil
	}
	if elapsed := time.Since(g.started); elapsed > g.limit {
		return &ComputationTimeoutError{Limit: g.limit, Elapsed: elapsed, Stage: stage}
	}
	return nil
}
