package graph

import (
	"fmt"
	"strings"
)

// CycleError is returned when a dependency would close a loop, or when a
// cycle is found while ordering the graph. Path lists the loop in forward
// order with the first activity repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// DuplicateIDError is returned when an activity ID is already present.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("activity %q already exists", e.ID)
}

// UnknownActivityError is returned when an operation references a missing activity.
type UnknownActivityError struct {
	ID string
}

func (e *UnknownActivityError) Error() string {
	return fmt.Sprintf("unknown activity %q", e.ID)
}

// UnknownDependencyError is returned when no dependency links the pair.
type UnknownDependencyError struct {
	PredecessorID string
	SuccessorID   string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("no dependency %s -> %s", e.PredecessorID, e.SuccessorID)
}

// DependentExistsError is returned when removing an activity that still has
// dependencies attached and force was not requested.
type DependentExistsError struct {
	ID         string
	Dependents []string
}

func (e *DependentExistsError) Error() string {
	return fmt.Sprintf("activity %q still has %d linked activities (%s); use force to remove",
		e.ID, len(e.Dependents), strings.Join(e.Dependents, ", "))
}

// InvalidLagError is returned when a dependency's logic and lag cannot be
// satisfied, or the logic type itself is not recognised.
type InvalidLagError struct {
	Logic  Logic
	Lag    int
	Span   int
	Reason string
}

func (e *InvalidLagError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid dependency %s%+d: %s", e.Logic, e.Lag, e.Reason)
	}
	return fmt.Sprintf("invalid dependency %s%+d: lead exceeds referenced span of %d days", e.Logic, e.Lag, e.Span)
}

// InvalidActivityError is returned for activities that fail basic shape checks.
type InvalidActivityError struct {
	ID     string
	Reason string
}

func (e *InvalidActivityError) Error() string {
	return fmt.Sprintf("invalid activity %q: %s", e.ID, e.Reason)
}

// DuplicateDependencyError is returned when the ordered pair is already linked.
type DuplicateDependencyError struct {
	PredecessorID string
	SuccessorID   string
}

func (e *DuplicateDependencyError) Error() string {
	return fmt.Sprintf("dependency %s -> %s already exists", e.PredecessorID, e.SuccessorID)
}
