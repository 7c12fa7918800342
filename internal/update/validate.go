// Package update validates and commits batches of field-reported activity
// updates. A batch is all-or-nothing: one bad edit rejects every edit.
package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joshharrison/fasttrack/internal/graph"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// fieldNames maps struct fields to the names reported to callers.
var fieldNames = map[string]string{
	"ActivityID":      "activity_id",
	"ActualStart":     "actual_start",
	"ActualFinish":    "actual_finish",
	"PercentComplete": "percent_complete",
	"DelayReason":     "delay_reason",
	"ChangeType":      "change_type",
}

// state is an activity with a batch's edits applied on top.
type state struct {
	activity     *graph.Activity
	actualStart  *int
	actualFinish *int
	percent      int
	wasStarted   bool
}

// Validate checks every edit against the graph and returns all errors and
// warnings. The graph is not modified.
func Validate(g *graph.Graph, edits []Edit, opts Options) ([]*ValidationError, []Warning) {
	var errs []*ValidationError
	fail := func(i int, e Edit, field string, err error) {
		errs = append(errs, &ValidationError{Index: i, ActivityID: e.ActivityID, Field: field, Err: err})
	}

	merged := make(map[string]*state, len(edits))
	seen := make(map[string]int, len(edits))

	for i, e := range edits {
		if err := validate.Struct(e); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				fail(i, e, "", err)
				continue
			}
			for _, fe := range verrs {
				fail(i, e, fieldNames[fe.StructField()], tagError(fe))
			}
		}
		if e.ActivityID == "" {
			continue
		}
		if e.ChangeType == graph.ChangeDelay && e.DelayReason != "" && strings.TrimSpace(e.DelayReason) == "" {
			fail(i, e, "delay_reason", ErrMissingReason)
		}

		if first, dup := seen[e.ActivityID]; dup {
			fail(i, e, "", fmt.Errorf("%w (first at edit %d)", ErrDuplicateEdit, first))
			continue
		}
		seen[e.ActivityID] = i

		a, ok := g.Activity(e.ActivityID)
		if !ok {
			fail(i, e, "activity_id", &graph.UnknownActivityError{ID: e.ActivityID})
			continue
		}

		s := apply(a, e)
		merged[e.ActivityID] = s

		switch {
		case s.actualFinish != nil && s.actualStart == nil:
			fail(i, e, "actual_start", ErrDateOrder)
		case s.actualFinish != nil && *s.actualStart > *s.actualFinish:
			fail(i, e, "actual_finish", fmt.Errorf("%w: start %d is after finish %d", ErrDateOrder, *s.actualStart, *s.actualFinish))
		case a.IsMilestone() && s.actualStart != nil && s.actualFinish != nil && *s.actualStart != *s.actualFinish:
			fail(i, e, "actual_finish", ErrMilestoneDateMismatch)
		}
		if s.percent == 100 && s.actualFinish == nil {
			fail(i, e, "percent_complete", ErrIncompleteActuals)
		}
	}

	if len(errs) > 0 {
		return errs, nil
	}
	return nil, warnings(g, edits, merged, opts)
}

// tagError translates a struct tag failure into the domain sentinel.
func tagError(fe validator.FieldError) error {
	switch fe.StructField() {
	case "ActivityID":
		return ErrMissingActivityID
	case "PercentComplete":
		return fmt.Errorf("%w: got %v", ErrRange, fe.Value())
	case "DelayReason":
		return ErrMissingReason
	case "ChangeType":
		return fmt.Errorf("%w: got %q", ErrInvalidChangeType, fe.Value())
	}
	return fmt.Errorf("%s failed %q", fe.Field(), fe.Tag())
}

func apply(a *graph.Activity, e Edit) *state {
	s := &state{
		activity:     a,
		actualStart:  a.ActualStart,
		actualFinish: a.ActualFinish,
		percent:      a.PercentComplete,
		wasStarted:   a.Started(),
	}
	if e.ActualStart != nil {
		s.actualStart = e.ActualStart
	}
	if e.ActualFinish != nil {
		s.actualFinish = e.ActualFinish
		if e.PercentComplete == nil {
			s.percent = 100
		}
	}
	if e.PercentComplete != nil {
		s.percent = *e.PercentComplete
	}
	return s
}

func warnings(g *graph.Graph, edits []Edit, merged map[string]*state, opts Options) []Warning {
	var out []Warning
	for i, e := range edits {
		s := merged[e.ActivityID]
		a := s.activity

		if e.ActualStart != nil && a.BaselineStart != nil {
			if early := *a.BaselineStart - *e.ActualStart; early > opts.BaselineToleranceDays {
				out = append(out, Warning{
					Index: i, ActivityID: a.ID, Kind: WarnEarlyStart,
					Message: fmt.Sprintf("actual start is %d days ahead of baseline start %d", early, *a.BaselineStart),
				})
			}
		}
		if e.ActualFinish != nil && a.BaselineFinish != nil {
			if early := *a.BaselineFinish - *e.ActualFinish; early > opts.BaselineToleranceDays {
				out = append(out, Warning{
					Index: i, ActivityID: a.ID, Kind: WarnEarlyFinish,
					Message: fmt.Sprintf("actual finish is %d days ahead of baseline finish %d", early, *a.BaselineFinish),
				})
			}
		}

		if opts.WarnFutureActuals {
			for _, d := range []*int{e.ActualStart, e.ActualFinish} {
				if d != nil && *d > g.DataDate() {
					out = append(out, Warning{
						Index: i, ActivityID: a.ID, Kind: WarnFutureActual,
						Message: fmt.Sprintf("actual date %d is after the data date %d", *d, g.DataDate()),
					})
					break
				}
			}
		}

		if s.actualStart != nil && !s.wasStarted {
			for _, dep := range g.Predecessors(a.ID) {
				if dep.Logic != graph.FS {
					continue
				}
				if !finished(g, merged, dep.PredecessorID) {
					out = append(out, Warning{
						Index: i, ActivityID: a.ID, Kind: WarnOutOfSequence,
						Message: fmt.Sprintf("started before predecessor %s finished", dep.PredecessorID),
					})
				}
			}
		}
	}
	return out
}

func finished(g *graph.Graph, merged map[string]*state, id string) bool {
	if s, ok := merged[id]; ok {
		return s.actualFinish != nil
	}
	p, ok := g.Activity(id)
	return ok && p.Finished()
}
