package cpm

import (
	"fmt"
	"time"
)

// Result holds the complete critical path analysis of one graph version.
type Result struct {
	Version       uint64 // graph version the result was computed from
	Activities    map[string]*ActivitySchedule
	CriticalPath  []string // critical activity IDs in topological order
	ProjectStart  int
	Floor         int // earliest start for unconstrained work: project start or data date
	ProjectFinish int
	TotalDuration int
	Waves         []Wave // work fronts grouped by early start
	TopoOrder     []string
}

// ActivitySchedule holds the computed dates for a single activity.
type ActivitySchedule struct {
	ActivityID string `json:"activity_id"`
	ES         int    `json:"early_start"`
	EF         int    `json:"early_finish"`
	LS         int    `json:"late_start"`
	LF         int    `json:"late_finish"`
	TotalFloat int    `json:"total_float"`
	FreeFloat  int    `json:"free_float"`
	IsCritical bool   `json:"is_critical"`
	// Actualized is set when ES/EF were pinned by recorded actual dates.
	Actualized bool `json:"actualized"`
	Wave       int  `json:"wave"`
}

// CurrentStart is the actual start if recorded, otherwise the early start.
func (s *ActivitySchedule) CurrentStart() int { return s.ES }

// CurrentFinish is the actual finish if recorded, otherwise the early finish.
func (s *ActivitySchedule) CurrentFinish() int { return s.EF }

// Wave is a set of activities sharing an early start.
type Wave struct {
	Index       int
	Start       int
	ActivityIDs []string
	IsCritical  bool // true if the wave holds a critical activity
}

// Warning is a non-fatal finding surfaced alongside a valid result.
type Warning struct {
	ActivityID string
	Err        error
}

func (w Warning) Error() string { return w.Err.Error() }

func (w Warning) Unwrap() error { return w.Err }

// NegativeFloatError marks an over-constrained activity.
type NegativeFloatError struct {
	ActivityID string
	Float      int
}

func (e *NegativeFloatError) Error() string {
	return fmt.Sprintf("activity %q has negative float %d: schedule is over-constrained", e.ActivityID, e.Float)
}

// ComputationTimeoutError is returned when a pass exceeds Options.Timeout.
type ComputationTimeoutError struct {
	Limit   time.Duration
	Elapsed time.Duration
	Stage   string
}

func (e *ComputationTimeoutError) Error() string {
	return fmt.Sprintf("schedule computation exceeded %s during %s (elapsed %s)", e.Limit, e.Stage, e.Elapsed.Truncate(time.Millisecond))
}

// Options tunes a computation.
type Options struct {
	// Timeout aborts pathological graphs. Zero disables the guard.
	Timeout time.Duration
}
