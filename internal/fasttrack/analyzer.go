// Package fasttrack finds schedule compression candidates: float-rich
// activities whose finish-to-start predecessor link could be converted into
// an overlapping start-to-start link.
package fasttrack

import (
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/fasttrack/internal/cpm"
	"github.com/joshharrison/fasttrack/internal/graph"
)

// Confidence weights. They are a ranking heuristic, not a calibrated probability.
const (
	weightFloat    = 0.5
	weightEffort   = 0.3
	weightConflict = 0.2
)

// Analyze enumerates and scores fast-track candidates for a computed
// schedule. The result is sorted by savings, then confidence, and truncated
// to cfg.MaxResults when set.
func Analyze(g *graph.Graph, res *cpm.Result, cfg Config) []Opportunity {
	var out []Opportunity

	for _, id := range res.TopoOrder {
		ts := res.Activities[id]
		if ts.IsCritical || ts.TotalFloat <= cfg.FloatThreshold {
			continue
		}
		a, ok := g.Activity(id)
		if !ok || a.Started() {
			continue
		}

		downstream := len(g.Downstream(id))
		for _, dep := range g.Predecessors(id) {
			if dep.Logic != graph.FS {
				continue
			}
			p, _ := g.Activity(dep.PredecessorID)
			if p.Finished() {
				continue
			}
			pts := res.Activities[p.ID]
			held := heldBy(g, res, a, p.ID)
			if o, ok := evaluate(a, p, dep, ts, pts, held, downstream, cfg); ok {
				o.ScheduleVersion = res.Version
				out = append(out, o)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PotentialSavingsDays != out[j].PotentialSavingsDays {
			return out[i].PotentialSavingsDays > out[j].PotentialSavingsDays
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].ActivityID != out[j].ActivityID {
			return out[i].ActivityID < out[j].ActivityID
		}
		return out[i].PredecessorID < out[j].PredecessorID
	})

	if cfg.MaxResults > 0 && len(out) > cfg.MaxResults {
		out = out[:cfg.MaxResults]
	}
	return out
}

// heldBy is the earliest start a would keep if the link from skip were
// removed: the schedule floor or the tightest of its other predecessors.
func heldBy(g *graph.Graph, res *cpm.Result, a *graph.Activity, skip string) int {
	held := res.Floor
	for _, dep := range g.Predecessors(a.ID) {
		if dep.PredecessorID == skip {
			continue
		}
		if c := cpm.Constraint(dep, res.Activities[dep.PredecessorID], a.Duration); c > held {
			held = c
		}
	}
	return held
}

// evaluate sizes the overlap for one FS link and scores it.
//
// Re-expressed as SS, the link holds a at p's start plus (a.ES - p.ES); the
// suggested SS lag shortens that offset by the overlap, so a starts exactly
// overlap days earlier. The overlap never exceeds p's scheduled span or a's
// total float. It is also bounded by how far this link holds a past held, so
// a link that does not set a's early start saves nothing.
func evaluate(a, p *graph.Activity, dep graph.Dependency, ts, pts *cpm.ActivitySchedule, held, downstream int, cfg Config) (Opportunity, bool) {
	span := pts.EF - pts.ES
	offset := ts.ES - pts.ES
	overlap := min(span, ts.TotalFloat, ts.ES-held)
	if !cfg.AllowLeads {
		overlap = min(overlap, offset)
	}
	if overlap <= 0 {
		return Opportunity{}, false
	}

	conflict := a.CrewID != "" && a.CrewID == p.CrewID
	effort := effortFor(downstream, conflict)

	return Opportunity{
		ActivityID:           a.ID,
		PredecessorID:        p.ID,
		CurrentLogic:         dep.Logic,
		CurrentLag:           dep.Lag,
		SuggestedLogic:       graph.SS,
		SuggestedLag:         offset - overlap,
		PotentialSavingsDays: overlap,
		RiskLevel:            riskFor(overlap, span, conflict),
		Confidence:           confidenceFor(overlap, ts.TotalFloat, effort, conflict),
		ResourceConflict:     conflict,
		ImplementationEffort: effort,
		TotalFloat:           ts.TotalFloat,
		DownstreamCount:      downstream,
		CrewID:               a.CrewID,
	}, true
}

func riskFor(overlap, predSpan int, conflict bool) RiskLevel {
	ratio := float64(overlap) / float64(predSpan)
	switch {
	case ratio <= 0.25 && !conflict:
		return RiskLow
	case ratio <= 0.5 || conflict:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// effortFor grows with the number of activities whose dates would shift and
// with a crew clash, on a 1..5 scale.
func effortFor(downstream int, conflict bool) int {
	effort := 1
	switch {
	case downstream >= 10:
		effort = 4
	case downstream >= 5:
		effort = 3
	case downstream >= 1:
		effort = 2
	}
	if conflict {
		effort++
	}
	return min(effort, 5)
}

func confidenceFor(overlap, totalFloat, effort int, conflict bool) int {
	floatScore := 1 - float64(overlap)/float64(totalFloat)
	effortScore := float64(5-effort) / 4
	conflictScore := 1.0
	if conflict {
		conflictScore = 0
	}
	score := 100 * (weightFloat*floatScore + weightEffort*effortScore + weightConflict*conflictScore)
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

// Apply installs the opportunity's suggested logic on g. The dependency must
// still match what the opportunity was computed from.
func Apply(g *graph.Graph, o Opportunity) (graph.Dependency, error) {
	cur, ok := g.Dependency(o.PredecessorID, o.ActivityID)
	if !ok {
		return graph.Dependency{}, &graph.UnknownDependencyError{PredecessorID: o.PredecessorID, SuccessorID: o.ActivityID}
	}
	if cur.Logic != graph.FS {
		return graph.Dependency{}, fmt.Errorf("%s: %w", cur, ErrNotFastTrackable)
	}
	if cur.Logic != o.CurrentLogic || cur.Lag != o.CurrentLag {
		return graph.Dependency{}, fmt.Errorf("%s no longer matches %s%+d: %w", cur, o.CurrentLogic, o.CurrentLag, ErrStaleOpportunity)
	}
	return g.UpdateDependency(o.PredecessorID, o.ActivityID, o.SuggestedLogic, o.SuggestedLag)
}
