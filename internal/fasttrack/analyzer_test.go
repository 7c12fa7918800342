package fasttrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/fasttrack/internal/cpm"
	"github.com/joshharrison/fasttrack/internal/graph"
)

// sideBranch builds the critical chain a(5) -> b(10) -> c(5) plus an
// off-path branch x(4) -FS+lag-> d(3) that carries plenty of float.
func sideBranch(t *testing.T, lag int) *graph.Graph {
	t.Helper()
	g := graph.New(0)
	for _, a := range []graph.Activity{
		{ID: "a", Duration: 5},
		{ID: "b", Duration: 10},
		{ID: "c", Duration: 5},
		{ID: "x", Duration: 4},
		{ID: "d", Duration: 3, FinishNoLaterThan: graph.Int(20)},
	} {
		require.NoError(t, g.AddActivity(a))
	}
	for _, d := range []graph.Dependency{
		{PredecessorID: "a", SuccessorID: "b", Logic: graph.FS},
		{PredecessorID: "b", SuccessorID: "c", Logic: graph.FS},
		{PredecessorID: "x", SuccessorID: "d", Logic: graph.FS, Lag: lag},
	} {
		require.NoError(t, g.AddDependency(d))
	}
	return g
}

// mergeInto joins p1(10) and p2(12) into d(3) with FS links. A 40-day
// activity keeps d off the critical path.
func mergeInto(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(0)
	for _, a := range []graph.Activity{
		{ID: "p1", Duration: 10},
		{ID: "p2", Duration: 12},
		{ID: "d", Duration: 3},
		{ID: "long", Duration: 40},
	} {
		require.NoError(t, g.AddActivity(a))
	}
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "p1", SuccessorID: "d"}))
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "p2", SuccessorID: "d"}))
	return g
}

// inProgressInto has p(10) started on day 0 and 20% done at data date 12,
// so p is forecast to finish on day 20.
func inProgressInto(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(12)
	for _, a := range []graph.Activity{
		{ID: "p", Duration: 10, ActualStart: graph.Int(0), PercentComplete: 20},
		{ID: "d", Duration: 3},
		{ID: "long", Duration: 40},
	} {
		require.NoError(t, g.AddActivity(a))
	}
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "p", SuccessorID: "d"}))
	return g
}

func find(t *testing.T, opps []Opportunity, predID, actID string) Opportunity {
	t.Helper()
	for _, o := range opps {
		if o.PredecessorID == predID && o.ActivityID == actID {
			return o
		}
	}
	require.Failf(t, "opportunity not found", "%s -> %s in %v", predID, actID, opps)
	return Opportunity{}
}

func compute(t *testing.T, g *graph.Graph) *cpm.Result {
	t.Helper()
	res, _, err := cpm.Analyze(g, cpm.Options{})
	require.NoError(t, err)
	return res
}

func TestAnalyze_ProposesSSForFloatRichActivity(t *testing.T) {
	g := sideBranch(t, 0)
	res := compute(t, g)
	require.Equal(t, 13, res.Activities["d"].TotalFloat)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 1)

	o := opps[0]
	assert.Equal(t, "d", o.ActivityID)
	assert.Equal(t, "x", o.PredecessorID)
	assert.Equal(t, graph.FS, o.CurrentLogic)
	assert.Equal(t, 0, o.CurrentLag)
	assert.Equal(t, graph.SS, o.SuggestedLogic)
	assert.Equal(t, 0, o.SuggestedLag)
	assert.Equal(t, 4, o.PotentialSavingsDays)
	assert.Equal(t, RiskHigh, o.RiskLevel)
	assert.False(t, o.ResourceConflict)
	assert.Equal(t, 1, o.ImplementationEffort)
	assert.Equal(t, 85, o.Confidence)
	assert.Equal(t, 13, o.TotalFloat)
	assert.Equal(t, res.Version, o.ScheduleVersion)
}

func TestAnalyze_KeepsExistingLagAsOffset(t *testing.T) {
	g := sideBranch(t, 2)
	res := compute(t, g)
	require.Equal(t, 11, res.Activities["d"].TotalFloat)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 1)
	assert.Equal(t, 4, opps[0].PotentialSavingsDays)
	assert.Equal(t, 2, opps[0].SuggestedLag)
}

func TestAnalyze_ThresholdIsExclusive(t *testing.T) {
	g := sideBranch(t, 0)
	res := compute(t, g)

	cfg := DefaultConfig()
	cfg.FloatThreshold = 13
	assert.Empty(t, Analyze(g, res, cfg))

	cfg.FloatThreshold = 12
	assert.Len(t, Analyze(g, res, cfg), 1)
}

func TestAnalyze_CriticalChainNeverProposed(t *testing.T) {
	g := sideBranch(t, 0)
	res := compute(t, g)

	cfg := DefaultConfig()
	cfg.FloatThreshold = 0
	for _, o := range Analyze(g, res, cfg) {
		assert.NotContains(t, []string{"a", "b", "c"}, o.ActivityID)
	}
}

func TestAnalyze_ResourceConflict(t *testing.T) {
	g := sideBranch(t, 0)
	for _, id := range []string{"x", "d"} {
		require.NoError(t, g.UpdateActivity(id, func(a *graph.Activity) { a.CrewID = "crew-1" }))
	}
	res := compute(t, g)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 1)
	o := opps[0]
	assert.True(t, o.ResourceConflict)
	assert.Equal(t, RiskMedium, o.RiskLevel)
	assert.Equal(t, 2, o.ImplementationEffort)
	assert.Equal(t, 57, o.Confidence)
	assert.Equal(t, "crew-1", o.CrewID)
}

func TestAnalyze_SkipsStartedWork(t *testing.T) {
	g := sideBranch(t, 0)
	require.NoError(t, g.UpdateActivity("x", func(a *graph.Activity) {
		a.ActualStart = graph.Int(0)
		a.ActualFinish = graph.Int(4)
		a.PercentComplete = 100
	}))
	res := compute(t, g)
	assert.Empty(t, Analyze(g, res, DefaultConfig()), "finished predecessor cannot be overlapped")

	g = sideBranch(t, 0)
	require.NoError(t, g.UpdateActivity("d", func(a *graph.Activity) { a.ActualStart = graph.Int(4) }))
	res = compute(t, g)
	assert.Empty(t, Analyze(g, res, DefaultConfig()), "started successor cannot be resequenced")
}

func TestAnalyze_Leads(t *testing.T) {
	// x follows a, so the lead can pull d back toward x's start.
	g := sideBranch(t, -2)
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "a", SuccessorID: "x"}))
	res := compute(t, g)
	require.Equal(t, 7, res.Activities["d"].ES)
	require.Equal(t, 10, res.Activities["d"].TotalFloat)

	cfg := DefaultConfig()
	cfg.FloatThreshold = 5
	o := find(t, Analyze(g, res, cfg), "x", "d")
	assert.Equal(t, 2, o.PotentialSavingsDays)
	assert.Equal(t, 0, o.SuggestedLag)

	cfg.AllowLeads = true
	o = find(t, Analyze(g, res, cfg), "x", "d")
	assert.Equal(t, 4, o.PotentialSavingsDays)
	assert.Equal(t, -2, o.SuggestedLag)
}

func TestAnalyze_LeadHeldAtProjectStart(t *testing.T) {
	g := sideBranch(t, -2)
	res := compute(t, g)
	require.Equal(t, 2, res.Activities["d"].ES)

	cfg := DefaultConfig()
	cfg.AllowLeads = true
	o := find(t, Analyze(g, res, cfg), "x", "d")
	assert.Equal(t, 2, o.PotentialSavingsDays, "d cannot start before day 0")
	assert.Equal(t, 0, o.SuggestedLag)
}

func TestAnalyze_SkipsLinkThatDoesNotDrive(t *testing.T) {
	g := mergeInto(t)
	res := compute(t, g)
	require.Equal(t, 12, res.Activities["d"].ES)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 1, "p1 finishes first and never sets d's start")
	assert.Equal(t, "p2", opps[0].PredecessorID)
	assert.Equal(t, 2, opps[0].PotentialSavingsDays)
	assert.Equal(t, 10, opps[0].SuggestedLag)
}

func TestAnalyze_InProgressPredecessor(t *testing.T) {
	g := inProgressInto(t)
	res := compute(t, g)
	require.Equal(t, 20, res.Activities["d"].ES)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 1)
	assert.Equal(t, 8, opps[0].PotentialSavingsDays, "d is held at the data date")
	assert.Equal(t, 12, opps[0].SuggestedLag)
}

func TestAnalyze_SortingAndLimit(t *testing.T) {
	g := sideBranch(t, 0)
	require.NoError(t, g.AddActivity(graph.Activity{ID: "y", Duration: 2}))
	require.NoError(t, g.AddActivity(graph.Activity{ID: "e", Duration: 1}))
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "y", SuccessorID: "e"}))
	res := compute(t, g)

	opps := Analyze(g, res, DefaultConfig())
	require.Len(t, opps, 2)
	assert.Equal(t, "d", opps[0].ActivityID)
	assert.Equal(t, "e", opps[1].ActivityID)
	assert.GreaterOrEqual(t, opps[0].PotentialSavingsDays, opps[1].PotentialSavingsDays)

	cfg := DefaultConfig()
	cfg.MaxResults = 1
	opps = Analyze(g, res, cfg)
	require.Len(t, opps, 1)
	assert.Equal(t, "d", opps[0].ActivityID)
}

func TestAnalyze_SavingsNeverExceedFloat(t *testing.T) {
	g := graph.New(0)
	durations := map[string]int{"p1": 30, "p2": 2, "p3": 12, "s1": 4, "s2": 6, "s3": 1, "end": 40}
	for id, d := range durations {
		require.NoError(t, g.AddActivity(graph.Activity{ID: id, Duration: d}))
	}
	for _, d := range []graph.Dependency{
		{PredecessorID: "p1", SuccessorID: "s1"},
		{PredecessorID: "p2", SuccessorID: "s2", Lag: 3},
		{PredecessorID: "p3", SuccessorID: "s3"},
		{PredecessorID: "p2", SuccessorID: "s3", Logic: graph.SS, Lag: 1},
	} {
		require.NoError(t, g.AddDependency(d))
	}
	res := compute(t, g)

	cfg := DefaultConfig()
	cfg.FloatThreshold = 0
	opps := Analyze(g, res, cfg)
	require.NotEmpty(t, opps)
	for _, o := range opps {
		assert.LessOrEqual(t, o.PotentialSavingsDays, res.Activities[o.ActivityID].TotalFloat, o.ActivityID)
		assert.Positive(t, o.PotentialSavingsDays)
		assert.GreaterOrEqual(t, o.SuggestedLag, 0)
		assert.Contains(t, []RiskLevel{RiskLow, RiskMedium, RiskHigh}, o.RiskLevel)
		assert.True(t, o.Confidence >= 0 && o.Confidence <= 100)
		assert.True(t, o.ImplementationEffort >= 1 && o.ImplementationEffort <= 5)
	}
}

func TestApply_ShiftsSuccessorByOverlap(t *testing.T) {
	g := sideBranch(t, 2)
	before := compute(t, g)
	opps := Analyze(g, before, DefaultConfig())
	require.Len(t, opps, 1)

	dep, err := Apply(g, opps[0])
	require.NoError(t, err)
	assert.Equal(t, opps[0].Dependency(), dep)

	after := compute(t, g)
	assert.Equal(t, before.Activities["d"].ES-opps[0].PotentialSavingsDays, after.Activities["d"].ES)
	assert.Equal(t, before.Activities["d"].TotalFloat+opps[0].PotentialSavingsDays, after.Activities["d"].TotalFloat)
	assert.Greater(t, after.Version, before.Version)
}

func TestApply_SavingsMatchShift(t *testing.T) {
	leads := DefaultConfig()
	leads.AllowLeads = true
	leads.FloatThreshold = 5

	tests := []struct {
		name  string
		build func(t *testing.T) *graph.Graph
		cfg   Config
		want  map[string]int // "pred->succ" -> savings
	}{
		{
			name:  "single predecessor",
			build: func(t *testing.T) *graph.Graph { return sideBranch(t, 0) },
			cfg:   DefaultConfig(),
			want:  map[string]int{"x->d": 4},
		},
		{
			name:  "several predecessors",
			build: mergeInto,
			cfg:   DefaultConfig(),
			want:  map[string]int{"p2->d": 2},
		},
		{
			name:  "in-progress predecessor",
			build: inProgressInto,
			cfg:   DefaultConfig(),
			want:  map[string]int{"p->d": 8},
		},
		{
			name:  "lead floored at project start",
			build: func(t *testing.T) *graph.Graph { return sideBranch(t, -2) },
			cfg:   leads,
			want:  map[string]int{"x->d": 2},
		},
		{
			name: "lead behind a driving chain",
			build: func(t *testing.T) *graph.Graph {
				g := sideBranch(t, -2)
				require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "a", SuccessorID: "x"}))
				return g
			},
			cfg:  leads,
			want: map[string]int{"a->x": 5, "x->d": 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build(t)
			before := compute(t, g)
			opps := Analyze(g, before, tt.cfg)

			got := make(map[string]int, len(opps))
			for _, o := range opps {
				got[o.PredecessorID+"->"+o.ActivityID] = o.PotentialSavingsDays

				trial := g.Clone()
				_, err := Apply(trial, o)
				require.NoError(t, err)
				after := compute(t, trial)
				assert.Equal(t, o.PotentialSavingsDays,
					before.Activities[o.ActivityID].ES-after.Activities[o.ActivityID].ES,
					"%s -> %s", o.PredecessorID, o.ActivityID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_RejectsStaleOrNonFS(t *testing.T) {
	g := sideBranch(t, 0)
	opps := Analyze(g, compute(t, g), DefaultConfig())
	require.Len(t, opps, 1)

	_, err := g.UpdateDependency("x", "d", graph.FS, 1)
	require.NoError(t, err)
	_, err = Apply(g, opps[0])
	assert.ErrorIs(t, err, ErrStaleOpportunity)

	_, err = g.UpdateDependency("x", "d", graph.SS, 0)
	require.NoError(t, err)
	_, err = Apply(g, opps[0])
	assert.ErrorIs(t, err, ErrNotFastTrackable)

	require.NoError(t, g.RemoveDependency("x", "d"))
	_, err = Apply(g, opps[0])
	var unknown *graph.UnknownDependencyError
	assert.ErrorAs(t, err, &unknown)
}
