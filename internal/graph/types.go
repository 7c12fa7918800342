package graph

import "fmt"

// ActivityType distinguishes work-bearing tasks from zero-duration milestones.
type ActivityType string

const (
	TypeTask      ActivityType = "task"
	TypeMilestone ActivityType = "milestone"
)

// Logic is the relationship type of a dependency.
type Logic string

const (
	FS Logic = "FS" // finish-to-start
	SS Logic = "SS" // start-to-start
	FF Logic = "FF" // finish-to-finish
	SF Logic = "SF" // start-to-finish
)

// Valid reports whether l is one of the four supported relationship types.
func (l Logic) Valid() bool {
	switch l {
	case FS, SS, FF, SF:
		return true
	}
	return false
}

// ChangeType classifies a field-reported update.
type ChangeType string

const (
	ChangeNone         ChangeType = "no_change"
	ChangeDelay        ChangeType = "delay"
	ChangeResequence   ChangeType = "resequence"
	ChangeAcceleration ChangeType = "acceleration"
)

// Activity is a single schedulable unit of work. Dates are whole-day offsets
// on the project calendar (day 0 is the project origin).
type Activity struct {
	ID              string       `json:"id" yaml:"id"`
	Description     string       `json:"description" yaml:"description"`
	Type            ActivityType `json:"type" yaml:"type"`
	Duration        int          `json:"duration" yaml:"duration"`
	BaselineStart   *int         `json:"baseline_start,omitempty" yaml:"baseline_start,omitempty"`
	BaselineFinish  *int         `json:"baseline_finish,omitempty" yaml:"baseline_finish,omitempty"`
	ActualStart     *int         `json:"actual_start,omitempty" yaml:"actual_start,omitempty"`
	ActualFinish    *int         `json:"actual_finish,omitempty" yaml:"actual_finish,omitempty"`
	PercentComplete int          `json:"percent_complete" yaml:"percent_complete"`
	CrewID          string       `json:"crew_id,omitempty" yaml:"crew_id,omitempty"`

	// FinishNoLaterThan forces the activity's late finish.
	FinishNoLaterThan *int `json:"finish_no_later_than,omitempty" yaml:"finish_no_later_than,omitempty"`

	// Populated by committed field updates.
	DelayReason string     `json:"delay_reason,omitempty" yaml:"delay_reason,omitempty"`
	LastChange  ChangeType `json:"last_change,omitempty" yaml:"last_change,omitempty"`
	Notes       string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// IsMilestone reports whether the activity is a zero-duration milestone.
func (a *Activity) IsMilestone() bool {
	return a.Type == TypeMilestone
}

// Started reports whether an actual start has been recorded.
func (a *Activity) Started() bool { return a.ActualStart != nil }

// Finished reports whether an actual finish has been recorded.
func (a *Activity) Finished() bool { return a.ActualFinish != nil }

func (a *Activity) clone() *Activity {
	c := *a
	c.BaselineStart = copyInt(a.BaselineStart)
	c.BaselineFinish = copyInt(a.BaselineFinish)
	c.ActualStart = copyInt(a.ActualStart)
	c.ActualFinish = copyInt(a.ActualFinish)
	c.FinishNoLaterThan = copyInt(a.FinishNoLaterThan)
	return &c
}

// Dependency links a predecessor to a successor. At most one dependency
// exists per ordered pair of activities.
type Dependency struct {
	PredecessorID string `json:"predecessor" yaml:"predecessor"`
	SuccessorID   string `json:"successor" yaml:"successor"`
	Logic         Logic  `json:"logic" yaml:"logic"`
	Lag           int    `json:"lag" yaml:"lag"`
}

func (d Dependency) key() edgeKey {
	return edgeKey{d.PredecessorID, d.SuccessorID}
}

func (d Dependency) String() string {
	lag := ""
	if d.Lag != 0 {
		lag = fmt.Sprintf("%+d", d.Lag)
	}
	return fmt.Sprintf("%s -%s%s-> %s", d.PredecessorID, d.Logic, lag, d.SuccessorID)
}

type edgeKey [2]string

// Int returns a pointer to v. Handy for optional day fields.
func Int(v int) *int { return &v }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
