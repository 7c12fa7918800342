package update

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/fasttrack/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(10)
	for _, a := range []graph.Activity{
		{ID: "a", Duration: 5, BaselineStart: graph.Int(0), BaselineFinish: graph.Int(5)},
		{ID: "b", Duration: 10, BaselineStart: graph.Int(5), BaselineFinish: graph.Int(15)},
		{ID: "m", Type: graph.TypeMilestone, BaselineStart: graph.Int(15), BaselineFinish: graph.Int(15)},
	} {
		require.NoError(t, g.AddActivity(a))
	}
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "a", SuccessorID: "b"}))
	require.NoError(t, g.AddDependency(graph.Dependency{PredecessorID: "b", SuccessorID: "m"}))
	return g
}

func pct(v int) *int { return &v }

func requireOnly(t *testing.T, errs []*ValidationError, target error) *ValidationError {
	t.Helper()
	require.Len(t, errs, 1, "errors: %v", errs)
	require.ErrorIs(t, errs[0], target)
	return errs[0]
}

func TestValidate_DateOrder(t *testing.T) {
	g := testGraph(t)

	errs, _ := Validate(g, []Edit{{ActivityID: "a", ActualFinish: graph.Int(5)}}, DefaultOptions())
	ve := requireOnly(t, errs, ErrDateOrder)
	assert.Equal(t, "actual_start", ve.Field)

	errs, _ = Validate(g, []Edit{{ActivityID: "a", ActualStart: graph.Int(6), ActualFinish: graph.Int(5)}}, DefaultOptions())
	requireOnly(t, errs, ErrDateOrder)
}

func TestValidate_MilestoneDates(t *testing.T) {
	g := testGraph(t)

	errs, _ := Validate(g, []Edit{{ActivityID: "m", ActualStart: graph.Int(8), ActualFinish: graph.Int(9)}}, DefaultOptions())
	requireOnly(t, errs, ErrMilestoneDateMismatch)

	errs, _ = Validate(g, []Edit{{ActivityID: "m", ActualStart: graph.Int(9), ActualFinish: graph.Int(9)}}, DefaultOptions())
	assert.Empty(t, errs)
}

func TestValidate_DelayNeedsReason(t *testing.T) {
	g := testGraph(t)

	for _, reason := range []string{"", "   "} {
		errs, _ := Validate(g, []Edit{{ActivityID: "b", ChangeType: graph.ChangeDelay, DelayReason: reason}}, DefaultOptions())
		ve := requireOnly(t, errs, ErrMissingReason)
		assert.Equal(t, "delay_reason", ve.Field)
	}

	errs, _ := Validate(g, []Edit{{ActivityID: "b", ChangeType: graph.ChangeDelay, DelayReason: "rain"}}, DefaultOptions())
	assert.Empty(t, errs)
}

func TestValidate_PercentRange(t *testing.T) {
	g := testGraph(t)

	for _, p := range []int{-1, 101} {
		errs, _ := Validate(g, []Edit{{ActivityID: "a", ActualStart: graph.Int(0), PercentComplete: pct(p)}}, DefaultOptions())
		requireOnly(t, errs, ErrRange)
	}
}

func TestValidate_CompleteNeedsFinish(t *testing.T) {
	g := testGraph(t)

	errs, _ := Validate(g, []Edit{{ActivityID: "a", ActualStart: graph.Int(0), PercentComplete: pct(100)}}, DefaultOptions())
	requireOnly(t, errs, ErrIncompleteActuals)
}

func TestValidate_ChangeTypeAndIdentity(t *testing.T) {
	g := testGraph(t)

	errs, _ := Validate(g, []Edit{{ActivityID: "a", ChangeType: "paused"}}, DefaultOptions())
	requireOnly(t, errs, ErrInvalidChangeType)

	errs, _ = Validate(g, []Edit{{}}, DefaultOptions())
	requireOnly(t, errs, ErrMissingActivityID)

	errs, _ = Validate(g, []Edit{{ActivityID: "zz"}}, DefaultOptions())
	require.Len(t, errs, 1)
	var unknown *graph.UnknownActivityError
	assert.ErrorAs(t, errs[0], &unknown)

	errs, _ = Validate(g, []Edit{{ActivityID: "a", Notes: "one"}, {ActivityID: "a", Notes: "two"}}, DefaultOptions())
	ve := requireOnly(t, errs, ErrDuplicateEdit)
	assert.Equal(t, 1, ve.Index)
}

func TestValidate_MergesWithStoredActuals(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, g.UpdateActivity("a", func(a *graph.Activity) { a.ActualStart = graph.Int(1) }))

	errs, _ := Validate(g, []Edit{{ActivityID: "a", ActualFinish: graph.Int(6)}}, DefaultOptions())
	assert.Empty(t, errs, "stored actual start satisfies the date order")
}

func TestValidate_Warnings(t *testing.T) {
	g := testGraph(t)
	opts := DefaultOptions()

	_, warns := Validate(g, []Edit{{ActivityID: "b", ActualStart: graph.Int(-1)}}, opts)
	kinds := warningKinds(warns)
	assert.Contains(t, kinds, WarnEarlyStart)
	assert.Contains(t, kinds, WarnOutOfSequence, "a has not finished")

	_, warns = Validate(g, []Edit{
		{ActivityID: "a", ActualStart: graph.Int(0), ActualFinish: graph.Int(5)},
		{ActivityID: "b", ActualStart: graph.Int(5)},
	}, opts)
	assert.Empty(t, warns, "predecessor finishes in the same batch")

	_, warns = Validate(g, []Edit{{ActivityID: "a", ActualStart: graph.Int(11)}}, opts)
	assert.Equal(t, []WarningKind{WarnFutureActual}, warningKinds(warns))

	opts.WarnFutureActuals = false
	_, warns = Validate(g, []Edit{{ActivityID: "a", ActualStart: graph.Int(11)}}, opts)
	assert.Empty(t, warns)
}

func TestValidate_EarlyFinishWarning(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, g.UpdateActivity("a", func(a *graph.Activity) {
		a.ActualStart = graph.Int(0)
		a.ActualFinish = graph.Int(5)
	}))

	_, warns := Validate(g, []Edit{{ActivityID: "b", ActualStart: graph.Int(5), ActualFinish: graph.Int(9)}}, DefaultOptions())
	require.Equal(t, []WarningKind{WarnEarlyFinish}, warningKinds(warns))
	assert.Contains(t, warns[0].Message, "6 days ahead of baseline finish 15")

	_, warns = Validate(g, []Edit{{ActivityID: "b", ActualStart: graph.Int(5), ActualFinish: graph.Int(10)}}, DefaultOptions())
	assert.Empty(t, warns, "within tolerance")
}

func warningKinds(warns []Warning) []WarningKind {
	var kinds []WarningKind
	for _, w := range warns {
		kinds = append(kinds, w.Kind)
	}
	return kinds
}

func TestCommit_AllOrNothing(t *testing.T) {
	g := testGraph(t)
	before := g.Version()

	out := Commit(g, []Edit{
		{ActivityID: "a", ActualStart: graph.Int(0), ActualFinish: graph.Int(5)},
		{ActivityID: "b", ActualFinish: graph.Int(14)},
	}, DefaultOptions())

	assert.False(t, out.Committed)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "b", out.Errors[0].ActivityID)
	assert.True(t, errors.Is(out.Err(), ErrDateOrder))
	assert.Equal(t, before, g.Version())

	a, _ := g.Activity("a")
	assert.Nil(t, a.ActualStart, "valid edit in a rejected batch must not be written")
}

func TestCommit_UnknownActivityRejected(t *testing.T) {
	g := testGraph(t)
	before := g.Version()

	var out *Outcome
	require.NotPanics(t, func() {
		out = Commit(g, []Edit{{ActivityID: "ghost", PercentComplete: pct(10)}}, DefaultOptions())
	})
	assert.False(t, out.Committed)
	var unknown *graph.UnknownActivityError
	assert.ErrorAs(t, out.Err(), &unknown)
	assert.Equal(t, before, g.Version())
}

func TestCommit_ReportsEveryFailure(t *testing.T) {
	g := testGraph(t)

	out := Commit(g, []Edit{
		{ActivityID: "a", ActualFinish: graph.Int(5)},
		{ActivityID: "b", ChangeType: graph.ChangeDelay},
		{ActivityID: "m", ActualStart: graph.Int(1), ActualFinish: graph.Int(2)},
	}, DefaultOptions())

	require.Len(t, out.Errors, 3)
	err := out.Err()
	assert.ErrorIs(t, err, ErrDateOrder)
	assert.ErrorIs(t, err, ErrMissingReason)
	assert.ErrorIs(t, err, ErrMilestoneDateMismatch)
}

func TestCommit_WritesAndReportsVariance(t *testing.T) {
	g := testGraph(t)
	before := g.Version()

	out := Commit(g, []Edit{
		{ActivityID: "a", ActualStart: graph.Int(2), ActualFinish: graph.Int(8), ChangeType: graph.ChangeDelay, DelayReason: "late permit", Notes: "inspected"},
		{ActivityID: "b", ActualStart: graph.Int(8), PercentComplete: pct(20)},
	}, DefaultOptions())

	require.True(t, out.Committed)
	require.NoError(t, out.Err())
	assert.Greater(t, out.Version, before)

	a, _ := g.Activity("a")
	assert.Equal(t, 2, *a.ActualStart)
	assert.Equal(t, 8, *a.ActualFinish)
	assert.Equal(t, 100, a.PercentComplete)
	assert.Equal(t, graph.ChangeDelay, a.LastChange)
	assert.Equal(t, "late permit", a.DelayReason)
	assert.Equal(t, "inspected", a.Notes)

	b, _ := g.Activity("b")
	assert.Equal(t, 20, b.PercentComplete)
	assert.Nil(t, b.ActualFinish)

	require.Len(t, out.Variances, 2)
	assert.Equal(t, 2, *out.Variances[0].StartDays)
	assert.Equal(t, 3, *out.Variances[0].FinishDays)
	assert.Equal(t, 3, *out.Variances[1].StartDays)
	assert.Nil(t, out.Variances[1].FinishDays)
}

func TestVarianceDays(t *testing.T) {
	assert.Equal(t, 3, VarianceDays(10, 13))
	assert.Equal(t, -2, VarianceDays(10, 8))
	assert.Equal(t, 0, VarianceDays(4, 4))
}
