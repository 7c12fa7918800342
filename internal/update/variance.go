package update

import "github.com/joshharrison/fasttrack/internal/graph"

// Variance compares an activity's current or actual dates with its
// baseline. Positive days are late. A nil field means one side is missing.
type Variance struct {
	ActivityID     string `json:"activity_id"`
	BaselineStart  *int   `json:"baseline_start,omitempty"`
	BaselineFinish *int   `json:"baseline_finish,omitempty"`
	Start          *int   `json:"start,omitempty"`
	Finish         *int   `json:"finish,omitempty"`
	StartDays      *int   `json:"start_variance_days,omitempty"`
	FinishDays     *int   `json:"finish_variance_days,omitempty"`
}

// VarianceDays is the signed slip from baseline to current. Positive = late.
func VarianceDays(baseline, current int) int {
	return current - baseline
}

// ForActivity builds the variance row for a with the given comparison dates.
func ForActivity(a *graph.Activity, start, finish *int) Variance {
	v := Variance{
		ActivityID:     a.ID,
		BaselineStart:  a.BaselineStart,
		BaselineFinish: a.BaselineFinish,
		Start:          start,
		Finish:         finish,
	}
	if a.BaselineStart != nil && start != nil {
		v.StartDays = graph.Int(VarianceDays(*a.BaselineStart, *start))
	}
	if a.BaselineFinish != nil && finish != nil {
		v.FinishDays = graph.Int(VarianceDays(*a.BaselineFinish, *finish))
	}
	return v
}
