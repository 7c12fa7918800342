package update

import (
	"errors"
	"fmt"

	"github.com/joshharrison/fasttrack/internal/graph"
)

// Edit is one field-reported change to an activity. Nil or empty fields
// leave the stored value untouched.
type Edit struct {
	ActivityID      string           `json:"activity_id" yaml:"activity_id" validate:"required"`
	ActualStart     *int             `json:"actual_start,omitempty" yaml:"actual_start,omitempty"`
	ActualFinish    *int             `json:"actual_finish,omitempty" yaml:"actual_finish,omitempty"`
	PercentComplete *int             `json:"percent_complete,omitempty" yaml:"percent_complete,omitempty" validate:"omitempty,min=0,max=100"`
	DelayReason     string           `json:"delay_reason,omitempty" yaml:"delay_reason,omitempty" validate:"required_if=ChangeType delay"`
	ChangeType      graph.ChangeType `json:"change_type,omitempty" yaml:"change_type,omitempty" validate:"omitempty,oneof=no_change delay resequence acceleration"`
	Notes           string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Options tunes validation.
type Options struct {
	// BaselineToleranceDays is how far an actual start or finish may precede
	// its baseline date before a warning is raised.
	BaselineToleranceDays int  `mapstructure:"baseline_tolerance_days" validate:"min=0"`
	WarnFutureActuals     bool `mapstructure:"warn_future_actuals"`
}

// DefaultOptions returns the stock validation settings.
func DefaultOptions() Options {
	return Options{BaselineToleranceDays: 5, WarnFutureActuals: true}
}

// WarningKind classifies a non-fatal finding.
type WarningKind string

const (
	WarnEarlyStart    WarningKind = "early_start"
	WarnEarlyFinish   WarningKind = "early_finish"
	WarnFutureActual  WarningKind = "future_actual"
	WarnOutOfSequence WarningKind = "out_of_sequence"
)

// Warning is unusual but valid input. Warnings never block a commit.
type Warning struct {
	Index      int         `json:"index"`
	ActivityID string      `json:"activity_id"`
	Kind       WarningKind `json:"kind"`
	Message    string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.ActivityID, w.Message)
}

// Outcome reports what happened to a batch.
type Outcome struct {
	Committed bool               `json:"committed"`
	Errors    []*ValidationError `json:"errors,omitempty"`
	Warnings  []Warning          `json:"warnings,omitempty"`
	Variances []Variance         `json:"variances,omitempty"`
	// Version is the graph version after the commit, or the untouched
	// version when the batch was rejected.
	Version uint64 `json:"version"`
}

// Err joins every validation error, or returns nil for a committed batch.
func (o *Outcome) Err() error {
	if len(o.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(o.Errors))
	for i, e := range o.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
