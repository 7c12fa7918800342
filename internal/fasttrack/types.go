package fasttrack

import (
	"errors"

	"github.com/joshharrison/fasttrack/internal/graph"
)

// DefaultFloatThreshold is the float (days) an activity must exceed before
// it is considered for fast-tracking.
const DefaultFloatThreshold = 10

var (
	// ErrStaleOpportunity means the dependency changed since the opportunity
	// was generated; regenerate and try again.
	ErrStaleOpportunity = errors.New("fast-track opportunity is stale")

	// ErrNotFastTrackable means the dependency is not a finish-to-start link.
	ErrNotFastTrackable = errors.New("only finish-to-start dependencies can be fast-tracked")
)

// RiskLevel grades how aggressive an overlap is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Config controls candidate selection.
type Config struct {
	FloatThreshold int  `mapstructure:"float_threshold" validate:"min=0"`
	MaxResults     int  `mapstructure:"max_results" validate:"min=0"` // 0 means unlimited
	AllowLeads     bool `mapstructure:"allow_leads"`
}

// DefaultConfig returns the stock selection settings.
func DefaultConfig() Config {
	return Config{FloatThreshold: DefaultFloatThreshold}
}

// Opportunity is a proposed FS -> SS conversion. It is a read-only
// projection of one schedule version and is never stored.
type Opportunity struct {
	ActivityID    string `json:"activity_id"`
	PredecessorID string `json:"predecessor_id"`

	CurrentLogic   graph.Logic `json:"current_logic"`
	CurrentLag     int         `json:"current_lag"`
	SuggestedLogic graph.Logic `json:"suggested_logic"`
	SuggestedLag   int         `json:"suggested_lag"`

	PotentialSavingsDays int       `json:"potential_savings_days"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Confidence           int       `json:"confidence"`
	ResourceConflict     bool      `json:"resource_conflict"`
	ImplementationEffort int       `json:"implementation_effort"`

	// Context captured at analysis time.
	TotalFloat      int    `json:"total_float"`
	DownstreamCount int    `json:"downstream_count"`
	CrewID          string `json:"crew_id,omitempty"`
	ScheduleVersion uint64 `json:"schedule_version"`
}

// Dependency returns the dependency the opportunity would install.
func (o Opportunity) Dependency() graph.Dependency {
	return graph.Dependency{
		PredecessorID: o.PredecessorID,
		SuccessorID:   o.ActivityID,
		Logic:         o.SuggestedLogic,
		Lag:           o.SuggestedLag,
	}
}
