package update

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDateOrder             = errors.New("actual finish requires an actual start on or before it")
	ErrMilestoneDateMismatch = errors.New("milestone actual start and finish must be the same day")
	ErrMissingReason         = errors.New("a delay requires a reason")
	ErrRange                 = errors.New("percent complete must be between 0 and 100")
	ErrIncompleteActuals     = errors.New("100% complete requires an actual finish")
	ErrInvalidChangeType     = errors.New("change type must be one of no_change, delay, resequence, acceleration")
	ErrDuplicateEdit         = errors.New("activity is edited more than once in the batch")
	ErrMissingActivityID     = errors.New("activity id is required")
)

// ValidationError ties a failed check to the edit that caused it so callers
// can flag every offending row of a batch.
type ValidationError struct {
	Index      int // position of the edit in the batch
	ActivityID string
	Field      string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("edit %d (%s): %v", e.Index, e.ActivityID, e.Err)
	}
	return fmt.Sprintf("edit %d (%s) %s: %v", e.Index, e.ActivityID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index      int    `json:"index"`
		ActivityID string `json:"activity_id"`
		Field      string `json:"field,omitempty"`
		Error      string `json:"error"`
	}{e.Index, e.ActivityID, e.Field, e.Err.Error()})
}
